package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/windora/fanstore/pkg/auth"
	"github.com/windora/fanstore/pkg/catalog"
	"github.com/windora/fanstore/pkg/category"
	"github.com/windora/fanstore/pkg/common"
	"github.com/windora/fanstore/pkg/inventory"
	"github.com/windora/fanstore/pkg/pricewatch"
	"github.com/windora/fanstore/pkg/server"
	"github.com/windora/fanstore/pkg/storage"
	"github.com/windora/fanstore/pkg/stores"
	fsSync "github.com/windora/fanstore/pkg/sync"
	"github.com/windora/fanstore/pkg/tracking"
	"github.com/windora/fanstore/pkg/types"
)

var enableProfiling = flag.Bool("profiling", true, "enable profiling endpoints")
var rabbitUrl = os.Getenv("RABBIT_URL")
var rabbitVHost = os.Getenv("RABBIT_HOST")
var clientName = os.Getenv("NODE_NAME")
var redisUrl = os.Getenv("REDIS_URL")
var redisPassword = os.Getenv("REDIS_PASSWORD")
var dataPath = os.Getenv("DATA_PATH")
var tokenHash = os.Getenv("FANSTORE_TOKEN_HASH")
var listenAddress = ":8080"
var debugAddress = ":8081"

var rabbitConfig = fsSync.RabbitConfig{
	Url:   rabbitUrl,
	VHost: rabbitVHost,
}

var forest = category.NewForest()
var idx = catalog.NewIndex(forest)
var stock = inventory.NewInventory()
var storeRegistry = stores.NewRegistry()

// localChanges notifies price watchers directly when no message broker is
// configured.
type localChanges struct {
	watches *pricewatch.Watches
}

func (h *localChanges) ProductsUpserted(products []*types.Product) {
	for _, p := range products {
		if p.PreviousPrice > 0 && p.Price < p.PreviousPrice {
			go h.watches.NotifyPriceLowered(context.Background(), p)
		}
	}
}

func (h *localChanges) ProductDeleted(_ types.ProductId) {}

func main() {
	flag.Parse()

	if tokenHash == "" {
		log.Fatalf("FANSTORE_TOKEN_HASH environment variable not set")
	}

	db := storage.NewDiskStorage(dataPath)
	watches := pricewatch.NewWatches(db)
	tokens := auth.NewTokenIssuer([]byte(tokenHash))

	srv := server.WebServer{
		Index:     idx,
		Forest:    forest,
		Inventory: stock,
		Stores:    storeRegistry,
		Watches:   watches,
		Storage:   db,
		Users:     auth.NewUserStore(),
		Sender:    auth.LogCodeSender{},
		Tokens:    tokens,
	}

	if redisUrl != "" {
		srv.Cache = server.NewCache(redisUrl, redisPassword, 0)
		srv.Codes = auth.NewRedisCodeStore(redisUrl, redisPassword, 1)
		log.Printf("Response cache enabled, url: %s", redisUrl)
	} else {
		srv.Codes = auth.NewMemoryCodeStore()
	}

	if err := db.LoadProducts(idx); err != nil {
		log.Printf("Failed to load products: %v", err)
	}
	snapshot, err := db.LoadCategories(forest)
	if err != nil {
		log.Printf("Failed to load categories: %v", err)
	}
	srv.SetCategories(snapshot)
	if err := db.LoadInventory(stock); err != nil {
		log.Printf("Failed to load inventory: %v", err)
	}
	if err := db.LoadStores(storeRegistry); err != nil {
		log.Printf("Failed to load stores: %v", err)
	}

	if rabbitUrl != "" {
		trk, err := tracking.NewRabbitTracking(rabbitUrl)
		if err != nil {
			log.Fatalf("Failed to create rabbit tracking: %v", err)
		}
		srv.Tracking = trk

		if clientName == "" {
			log.Println("Starting as master")
			master := &fsSync.RabbitMaster{RabbitConfig: rabbitConfig}
			if err := master.Connect(); err != nil {
				log.Fatalf("Failed to connect to RabbitMQ as master, %v", err)
			}
			idx.ChangeHandler = master
			stock.ChangeHandler = master
			srv.Notifier = master
		} else {
			log.Printf("Starting as client: %s", clientName)
			client := &fsSync.RabbitClient{
				RabbitConfig: rabbitConfig,
				ClientName:   clientName,
				Catalog:      idx,
				Inventory:    stock,
				OnPriceLowered: func(p *types.Product) {
					watches.NotifyPriceLowered(context.Background(), p)
				},
			}
			if err := client.Connect(); err != nil {
				log.Fatalf("Failed to connect to RabbitMQ as client, %v", err)
			}
		}
	} else {
		log.Println("Starting as standalone")
		idx.ChangeHandler = &localChanges{watches: watches}
	}

	var adminAuth server.AuthHandler
	googleAuth, err := server.NewGoogleAuth(tokens)
	if err != nil {
		log.Printf("Google auth disabled: %v", err)
		adminAuth = &server.MockAuth{}
	} else {
		adminAuth = googleAuth
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", srv.ClientHandler()))
	mux.Handle("/admin/", http.StripPrefix("/admin", srv.AdminHandler(adminAuth)))

	debugMux := http.NewServeMux()
	debugMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	debugMux.Handle("/metrics", promhttp.Handler())
	if enableProfiling != nil && *enableProfiling {
		log.Println("Profiling enabled")
		debugMux.HandleFunc("/debug/pprof/", pprof.Index)
		debugMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		debugMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		debugMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		debugMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	go func() {
		log.Printf("Starting debug server %v", debugAddress)
		log.Fatal(http.ListenAndServe(debugAddress, debugMux))
	}()

	timeouts := common.LoadTimeoutConfig(common.TimeoutConfig{
		ReadHeader: 5 * time.Second,
		Read:       30 * time.Second,
		Write:      30 * time.Second,
		Idle:       120 * time.Second,
		Shutdown:   20 * time.Second,
		Hook:       5 * time.Second,
	})
	apiServer := common.NewServerWithTimeouts(&http.Server{Addr: listenAddress, Handler: mux}, timeouts)

	common.RunServerWithShutdown(apiServer, "fanstore api", timeouts.Shutdown, timeouts.Hook,
		func(ctx context.Context) error {
			return db.SaveProducts(idx)
		},
		func(ctx context.Context) error {
			return db.SaveInventory(stock)
		},
	)
}
