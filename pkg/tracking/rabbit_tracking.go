package tracking

import (
	"log"
	"net/http"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/windora/fanstore/pkg/filters"
	"github.com/windora/fanstore/pkg/messaging"
)

const trackingPrefix = "global"

type RabbitTracking struct {
	connection *amqp.Connection
}

func NewRabbitTracking(url string) (*RabbitTracking, error) {
	ret := &RabbitTracking{}
	if err := ret.connect(url); err != nil {
		return nil, err
	}
	return ret, nil
}

func (t *RabbitTracking) connect(url string) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return err
	}
	t.connection = conn
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return messaging.DefineTopic(ch, trackingPrefix, messaging.TopicTracking)
}

func (t *RabbitTracking) Close() error {
	return t.connection.Close()
}

func (t *RabbitTracking) send(data any) {
	if err := messaging.SendChange(t.connection, trackingPrefix, messaging.TopicTracking, data); err != nil {
		log.Println("Error sending tracking event: ", err)
	}
}

func (t *RabbitTracking) TrackSession(sessionId int, r *http.Request) {
	ip := r.Header.Get("X-Real-Ip")
	if ip == "" {
		ip = r.Header.Get("X-Forwarded-For")
	}
	if ip == "" {
		ip = r.RemoteAddr
	}
	t.send(SessionEvent{
		BaseEvent: &BaseEvent{Event: 0, SessionId: sessionId, Context: "b2c"},
		Language:  r.Header.Get("Accept-Language"),
		UserAgent: r.UserAgent(),
		Ip:        ip,
	})
}

func (t *RabbitTracking) TrackSearch(sessionId int, state *filters.State, totalHits int) {
	t.send(SearchEvent{
		BaseEvent: &BaseEvent{Event: 1, SessionId: sessionId},
		Query:     filters.CacheKey(state),
		TotalHits: totalHits,
	})
}

func (t *RabbitTracking) TrackClick(sessionId int, productId uint) {
	t.send(ClickEvent{
		BaseEvent: &BaseEvent{Event: 2, SessionId: sessionId},
		ProductId: productId,
	})
}
