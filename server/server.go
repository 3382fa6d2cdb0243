package server

import (
	"bufio"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	"bloggen/config"
	"bloggen/db"
	"bloggen/feeds"
	"bloggen/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/labstack/gommon/random"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var (
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bloggen_http_request_duration_seconds",
		Help:    "Latency of HTTP requests by route",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 10), // Start at 1ms, double each bucket, 10 buckets
	}, []string{"route"})
	feedBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bloggen_feed_builds_total",
		Help: "Total number of RSS feed documents built",
	})
)

type ServerConfig struct {

	// Site configuration for templates and feed links
	Site *config.TomlConfig

	// The content index to read posts from
	DB *db.DB

	// Broadcast channel to pass reload events to SSE clients
	Broadcaster *Broadcaster
}

// Make it sync
type Broadcaster struct {
	sync.RWMutex
	reloadClients map[string]chan interface{}
}

// Constructor
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		reloadClients: make(map[string]chan interface{}, 100),
	}
}

func (b *Broadcaster) Broadcast(event interface{}) {
	b.RLock()
	defer b.RUnlock()

	for id, client := range b.reloadClients {
		select {
		case client <- event: // Non-blocking send
		default:
			log.Warnf("Client channel full, skipping reload event for client: %v", id)
		}
	}
}

// Function to add a client to the broadcaster
func (b *Broadcaster) AddClient(key string, client chan interface{}) {
	b.Lock()
	defer b.Unlock()
	b.reloadClients[key] = client
	log.WithFields(log.Fields{
		"key":   key,
		"count": len(b.reloadClients),
	}).Info("Adding client to broadcaster")
}

// Function to remove a client from the broadcaster
func (b *Broadcaster) RemoveClient(key string) {
	b.Lock()
	defer b.Unlock()

	if client, ok := b.reloadClients[key]; ok { // Check if the client exists
		close(client)                // Safely close the channel
		delete(b.reloadClients, key) // Remove from the map
	}

	log.WithFields(log.Fields{
		"key":   key,
		"count": len(b.reloadClients),
	}).Info("Removed client from broadcaster")
}

func (b *Broadcaster) Shutdown() {
	log.Info("Shutting down broadcaster")
	b.Lock()
	defer b.Unlock()
	for key, client := range b.reloadClients {
		close(client)
		delete(b.reloadClients, key)
	}
}

type pageData struct {
	Site  *config.TomlConfig
	Posts []models.Post
	Post  *models.Post
	HTML  template.HTML
}

// Returns a fiber.App instance to be used as the HTTP server for the blog
func Server(config *ServerConfig) *fiber.App {

	bc := config.Broadcaster

	app := fiber.New()

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		// start timer
		start := time.Now()

		// next routes
		err := c.Next()

		// stop timer
		stop := time.Now()

		requestLatency.WithLabelValues(c.Route().Path).Observe(stop.Sub(start).Seconds())

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"latency": stop.Sub(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Cache-Control",
	}))

	// Setup cache
	app.Use(cache.New(cache.Config{
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {

			if c.Method() != "GET" {
				return true
			}

			// If the pathname ends with /sse, don't cache
			if strings.HasSuffix(c.Path(), "/sse") {
				return true
			}

			// Only cache pages and the feed
			if c.Path() == "/" || c.Path() == "/rss.xml" || strings.HasPrefix(c.Path(), "/posts/") {
				return false
			}
			return true
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			// Get URL with query string to use as cache key
			url := c.Request().URI().String()
			return url
		},
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	// The syndication feed. Rebuilt from the content collection on every
	// request, placeholder channel metadata and all.
	app.Get("/rss.xml", func(c *fiber.Ctx) error {
		posts, err := config.DB.GetCollection(db.PostsCollection)
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error getting post collection")
			return c.Status(500).SendString("Error getting post collection")
		}

		feed := feeds.Build(posts, config.Site.BaseURL)
		payload, err := feeds.ToXML(feed)
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error building feed document")
			return c.Status(500).SendString("Error building feed document")
		}
		feedBuilds.Inc()

		c.Set("Content-Type", "application/rss+xml; charset=utf-8")
		return c.Send(payload)
	})

	app.Get("/", func(c *fiber.Ctx) error {
		posts, err := config.DB.GetCollection(db.PostsCollection)
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error getting post collection")
			return c.Status(500).SendString("Error getting post collection")
		}

		return renderPage(c, "index.html", pageData{Site: config.Site, Posts: posts})
	})

	app.Get("/posts/:slug", func(c *fiber.Ctx) error {
		post, err := config.DB.GetPost(c.Params("slug"))
		if err != nil {
			log.WithFields(log.Fields{
				"slug":  c.Params("slug"),
				"error": err,
			}).Error("Error getting post")
			return c.Status(500).SendString("Error getting post")
		}
		if post == nil {
			return c.Status(404).SendString("Post not found")
		}

		// Post HTML is sanitized at index time
		return renderPage(c, "post.html", pageData{Site: config.Site, Post: post, HTML: template.HTML(post.HTML)})
	})

	app.Get("/dashboard/posts-per-time", func(c *fiber.Ctx) error {
		category := c.Query("category", "")
		timeAgg := c.Query("time", "")

		if timeAgg == "" {
			timeAgg = "month"
		}

		// check if time is week, month or year
		if timeAgg != "week" && timeAgg != "month" && timeAgg != "year" {
			return c.Status(400).SendString("Invalid time")
		}

		postsPerTime, err := config.DB.GetPostCountPerTime(category, timeAgg)
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error getting posts per time")

			return c.Status(500).SendString("Error getting posts per time")
		}

		log.WithFields(log.Fields{
			"category": category,
			"count":    len(postsPerTime),
		}).Info("Get posts per time")

		return c.Status(200).JSON(postsPerTime)
	})

	app.Delete("/dev/reload/sse", func(c *fiber.Ctx) error {
		key := c.Query("key", "")
		bc.RemoveClient(key)
		return c.Status(200).SendString("OK")
	})

	// Livereload stream used by the dev workflow: edits to the content
	// directory show up here as soon as the watcher re-indexes them
	app.Get("/dev/reload/sse", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("Transfer-Encoding", "chunked")

		// Unique client key
		key := random.String(16)
		reloadChannel := make(chan interface{}, 10) // Buffered channel
		aliveChan := time.NewTicker(5 * time.Second)

		defer aliveChan.Stop()

		// Register the client
		bc.AddClient(key, reloadChannel)

		// Cleanup function
		cleanup := func() {
			log.Infof("Cleaning up SSE stream for client: %s", key)
			bc.RemoveClient(key)
		}

		// Use StreamWriter to manage SSE streaming
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cleanup()

			// Send initial event with client key
			fmt.Fprintf(w, "event: init\ndata: %s\n\n", key)
			if err := w.Flush(); err != nil {
				log.Errorf("Failed to send init event: %v", err)
				return
			}

			// Start streaming loop
			for {
				select {
				case <-aliveChan.C:
					// Send keep-alive pings
					if _, err := fmt.Fprintf(w, "event: ping\ndata: \n\n"); err != nil {
						log.Warnf("Failed to send ping to client %s: %v", key, err)
						return
					}
					if err := w.Flush(); err != nil {
						log.Warnf("Failed to flush ping for client %s: %v", key, err)
						return
					}

				case event, ok := <-reloadChannel:
					if !ok {
						log.Warnf("Reload channel closed for client %s", key)
						return
					}

					name, payload := reloadEvent(event)
					if name == "" {
						continue
					}
					if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
						log.Warnf("Failed to send %s event to client %s: %v", name, key, err)
						return
					}
					if err := w.Flush(); err != nil {
						log.Warnf("Failed to flush %s event for client %s: %v", name, key, err)
						return
					}
				}
			}
		}))

		return nil
	})

	return app
}

// reloadEvent maps an index event to its SSE event name and JSON payload
func reloadEvent(event interface{}) (string, []byte) {
	switch event := event.(type) {
	case models.PostIndexedEvent:
		payload, err := json.Marshal(event.Post)
		if err != nil {
			log.Errorf("Error marshalling post: %v", err)
			return "", nil
		}
		return "post-indexed", payload
	case models.PostRemovedEvent:
		payload, err := json.Marshal(event.Post)
		if err != nil {
			log.Errorf("Error marshalling post: %v", err)
			return "", nil
		}
		return "post-removed", payload
	default:
		return "", nil
	}
}

func renderPage(c *fiber.Ctx, name string, data pageData) error {
	c.Set("Content-Type", "text/html; charset=utf-8")

	var buf strings.Builder
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		log.WithFields(log.Fields{
			"template": name,
			"error":    err,
		}).Error("Error rendering template")
		return c.Status(500).SendString("Error rendering page")
	}
	return c.SendString(buf.String())
}
