package pricewatch

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/windora/fanstore/pkg/types"
)

const watchesFile = "price_watches.json"

// StorageProvider is the slice of disk storage this package needs.
type StorageProvider interface {
	SaveJson(data any, name string) error
	LoadJson(data any, name string) error
}

// Watch is one device token waiting for a price drop on one product.
type Watch struct {
	Id        string          `json:"id"`
	ProductId types.ProductId `json:"productId"`
	Token     string          `json:"token"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Watches struct {
	mu      sync.RWMutex
	storage StorageProvider
	Entries []Watch `json:"watches"`
}

func NewWatches(storage StorageProvider) *Watches {
	w := &Watches{
		storage: storage,
		Entries: []Watch{},
	}
	if err := storage.LoadJson(w, watchesFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading price watches: %v", err)
	}
	return w
}

// Add registers a token for a product, replacing an existing watch for the
// same pair.
func (w *Watches) Add(productId types.ProductId, token string) (Watch, error) {
	watch := Watch{
		Id:        uuid.NewString(),
		ProductId: productId,
		Token:     token,
		CreatedAt: time.Now(),
	}
	w.mu.Lock()
	replaced := false
	for i, existing := range w.Entries {
		if existing.ProductId == productId && existing.Token == token {
			w.Entries[i] = watch
			replaced = true
			break
		}
	}
	if !replaced {
		w.Entries = append(w.Entries, watch)
	}
	err := w.storage.SaveJson(w, watchesFile)
	w.mu.Unlock()
	return watch, err
}

// NotifyPriceLowered pushes to every watcher of the product. Delivery
// failures are logged per watch, one bad token never blocks the rest.
func (w *Watches) NotifyPriceLowered(ctx context.Context, product *types.Product) {
	w.mu.RLock()
	entries := make([]Watch, 0)
	for _, watch := range w.Entries {
		if watch.ProductId == product.Id {
			entries = append(entries, watch)
		}
	}
	w.mu.RUnlock()

	for _, watch := range entries {
		notification := &messaging.Notification{
			Title: fmt.Sprintf("Price drop on %s", product.Name),
			Body:  fmt.Sprintf("Now %d, was %d", product.Price, product.PreviousPrice),
		}
		data := map[string]string{
			"productId": fmt.Sprintf("%d", product.Id),
			"type":      "price-update",
			"newPrice":  fmt.Sprintf("%d", product.Price),
		}
		if err := sendFirebaseNotification(ctx, watch.Token, notification, data); err != nil {
			log.Printf("Failed to notify watcher %s for product %d: %v", watch.Id, product.Id, err)
		}
	}
}

// sendFirebaseNotification delivers one push through the Firebase Admin SDK.
// GOOGLE_APPLICATION_CREDENTIALS selects the service account.
func sendFirebaseNotification(ctx context.Context, registrationToken string, notification *messaging.Notification, data map[string]string) error {
	var app *firebase.App
	var err error

	if credentials := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credentials != "" {
		app, err = firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentials))
	} else {
		app, err = firebase.NewApp(ctx, nil)
	}
	if err != nil {
		return err
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return err
	}

	_, err = client.Send(ctx, &messaging.Message{
		Notification: notification,
		Data:         data,
		Token:        registrationToken,
	})
	return err
}
