package sync

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/windora/fanstore/pkg/catalog"
	"github.com/windora/fanstore/pkg/inventory"
	"github.com/windora/fanstore/pkg/messaging"
	"github.com/windora/fanstore/pkg/types"
)

type RabbitConfig struct {
	Url    string
	VHost  string
	Prefix string
}

func (c RabbitConfig) prefix() string {
	if c.Prefix == "" {
		return "fanstore"
	}
	return c.Prefix
}

// CategoryReload is broadcast when an admin mutates a category tree, readers
// rebuild the whole type from the flat list.
type CategoryReload struct {
	Type types.CategoryType `json:"categoryType"`
	Flat []types.Category   `json:"categories"`
}

// RabbitMaster publishes catalog, category and stock changes. It satisfies
// catalog.ChangeHandler and inventory.ChangeHandler.
type RabbitMaster struct {
	RabbitConfig
	connection *amqp.Connection
}

func (m *RabbitMaster) Connect() error {
	conn, err := amqp.DialConfig(m.Url, amqp.Config{Vhost: m.VHost})
	if err != nil {
		return err
	}
	m.connection = conn
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	for _, topic := range []messaging.ChangeTopic{
		messaging.TopicProductsUpserted,
		messaging.TopicProductDeleted,
		messaging.TopicCategoryReloaded,
		messaging.TopicStockChanged,
		messaging.TopicPriceLowered,
	} {
		if err := messaging.DefineTopic(ch, m.prefix(), topic); err != nil {
			return err
		}
	}
	return nil
}

func (m *RabbitMaster) Close() error {
	if m.connection == nil {
		return nil
	}
	return m.connection.Close()
}

func (m *RabbitMaster) send(topic messaging.ChangeTopic, data any) {
	if err := messaging.SendChange(m.connection, m.prefix(), topic, data); err != nil {
		log.Printf("Failed to publish %s: %v", topic, err)
	}
}

func (m *RabbitMaster) ProductsUpserted(products []*types.Product) {
	m.send(messaging.TopicProductsUpserted, products)
	for _, p := range products {
		if p.PreviousPrice > 0 && p.Price < p.PreviousPrice {
			m.send(messaging.TopicPriceLowered, p)
		}
	}
}

func (m *RabbitMaster) ProductDeleted(id types.ProductId) {
	m.send(messaging.TopicProductDeleted, id)
}

func (m *RabbitMaster) CategoryReloaded(reload CategoryReload) {
	m.send(messaging.TopicCategoryReloaded, reload)
}

func (m *RabbitMaster) StockChanged(change types.StockChange) {
	m.send(messaging.TopicStockChanged, change)
}

// RabbitClient applies published changes to a reader node's state.
type RabbitClient struct {
	RabbitConfig
	ClientName string
	Catalog    *catalog.Index
	Inventory  *inventory.Inventory
	// OnPriceLowered is invoked for every published price drop when set.
	OnPriceLowered func(*types.Product)
	connection     *amqp.Connection
}

func (c *RabbitClient) Connect() error {
	conn, err := amqp.DialConfig(c.Url, amqp.Config{Vhost: c.VHost})
	if err != nil {
		return err
	}
	c.connection = conn

	if err := c.listen(messaging.TopicProductsUpserted, func(d amqp.Delivery) error {
		var products []*types.Product
		if err := json.Unmarshal(d.Body, &products); err != nil {
			return err
		}
		c.Catalog.Upsert(products...)
		return nil
	}); err != nil {
		return err
	}
	if err := c.listen(messaging.TopicProductDeleted, func(d amqp.Delivery) error {
		var id types.ProductId
		if err := json.Unmarshal(d.Body, &id); err != nil {
			return err
		}
		c.Catalog.Delete(id)
		return nil
	}); err != nil {
		return err
	}
	if err := c.listen(messaging.TopicCategoryReloaded, func(d amqp.Delivery) error {
		var reload CategoryReload
		if err := json.Unmarshal(d.Body, &reload); err != nil {
			return err
		}
		c.Catalog.Categories.Load(reload.Type, reload.Flat)
		return nil
	}); err != nil {
		return err
	}
	if err := c.listen(messaging.TopicStockChanged, func(d amqp.Delivery) error {
		var change types.StockChange
		if err := json.Unmarshal(d.Body, &change); err != nil {
			return err
		}
		c.Inventory.Apply(change)
		return nil
	}); err != nil {
		return err
	}
	if c.OnPriceLowered == nil {
		return nil
	}
	return c.listen(messaging.TopicPriceLowered, func(d amqp.Delivery) error {
		var product types.Product
		if err := json.Unmarshal(d.Body, &product); err != nil {
			return err
		}
		c.OnPriceLowered(&product)
		return nil
	})
}

func (c *RabbitClient) listen(topic messaging.ChangeTopic, handle func(amqp.Delivery) error) error {
	ch, err := c.connection.Channel()
	if err != nil {
		return err
	}
	return messaging.ListenToTopic(ch, c.prefix(), topic, handle)
}

func (c *RabbitClient) Close() error {
	if c.connection == nil {
		return nil
	}
	return c.connection.Close()
}
