package messaging

import (
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ChangeTopic names one change stream on the broker.
type ChangeTopic string

const (
	TopicProductsUpserted ChangeTopic = "products_upserted"
	TopicProductDeleted   ChangeTopic = "product_deleted"
	TopicCategoryReloaded ChangeTopic = "category_reloaded"
	TopicStockChanged     ChangeTopic = "stock_changed"
	TopicPriceLowered     ChangeTopic = "price_lowered"
	TopicTracking         ChangeTopic = "tracking"
)

func getName(prefix string, topic ChangeTopic) string {
	return fmt.Sprintf("%s_%s", prefix, topic)
}

func DefineTopic(ch *amqp.Channel, prefix string, topic ChangeTopic) error {
	name := getName(prefix, topic)
	if err := ch.ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-delete
		false,   // internal
		false,   // noWait
		nil,     // arguments
	); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(
		name,  // name of the queue
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // noWait
		nil,   // arguments
	); err != nil {
		return err
	}
	return nil
}

func SendChange[V any](c *amqp.Connection, prefix string, topic ChangeTopic, data V) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	ch, err := c.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	name := getName(prefix, topic)
	return ch.Publish(
		name,
		name,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        bytes,
		},
	)
}

func DeclareBindAndConsume(ch *amqp.Channel, prefix string, topic ChangeTopic) (<-chan amqp.Delivery, error) {
	name := getName(prefix, topic)
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}
	if err = ch.QueueBind(q.Name, name, name, false, nil); err != nil {
		return nil, err
	}
	return ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
}

func ListenToTopic(ch *amqp.Channel, prefix string, topic ChangeTopic, handle func(amqp.Delivery) error) error {
	fc, err := DeclareBindAndConsume(ch, prefix, topic)
	if err != nil {
		return err
	}
	go func(msgs <-chan amqp.Delivery) {
		defer ch.Close()
		for d := range msgs {
			if err := handle(d); err != nil {
				log.Printf("Error processing %s message: %v", topic, err)
				return
			}
			d.Ack(false)
		}
	}(fc)
	return nil
}
