package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-style/internal/api"
	"github.com/joeblew999/plat-style/internal/api/editor"
	"github.com/joeblew999/plat-style/internal/db"
	"github.com/joeblew999/plat-style/internal/loader"
	"github.com/joeblew999/plat-style/internal/mapstyle"
	"github.com/joeblew999/plat-style/internal/service"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string

	MapboxAPIAccessToken string
	MapboxAPIURL         string
	DefaultStyle         string
	// Styles are registered next to the presets and the local style files.
	Styles []mapstyle.StyleDefinition

	// FetchTimeout bounds a single style download.
	FetchTimeout time.Duration
	// Fetcher overrides the default http/file fetcher.
	Fetcher loader.Fetcher
}

// Server is the map style HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	loader   *loader.Loader
	bus      *service.EventBus
	services *api.Services
}

// New creates a new map style server.
func New(cfg Config) (*Server, error) {
	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-style API", "1.0.0")
	humaConfig.Info.Description = "Map style composition API: base styles, layer group visibility, custom styles and saved configs."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	files := service.NewStyleFileService(cfg.DataDir)
	fetcher := cfg.Fetcher
	if fetcher == nil {
		timeout := cfg.FetchTimeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		fetcher = loader.NewFetcher(files.StylesDir(), timeout)
	}
	l, err := loader.New(fetcher, loader.DefaultConfig())
	if err != nil {
		return nil, err
	}

	bus := service.NewEventBus()
	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humaAPI,
		loader:  l,
		bus:     bus,
		services: &api.Services{
			MapStyle: service.NewMapStyleService(cfg.DataDir, l, bus),
			Files:    files,
		},
	}

	// Snapshots are optional; the server runs without DuckDB.
	conn, err := db.Open(db.Config{DataDir: cfg.DataDir, DBName: "mapstyle"})
	if err != nil {
		log.Printf("snapshots disabled: %v", err)
	} else {
		store := db.NewSnapshotStore(conn)
		if err := store.Migrate(context.Background()); err != nil {
			log.Printf("snapshots disabled: %v", err)
			conn.Close()
		} else {
			s.db = conn
			s.services.Snapshots = store
		}
	}

	s.routes()
	return s, nil
}

// Init registers the configured and local styles and starts downloading
// the registry.
func (s *Server) Init() mapstyle.State {
	styles := append([]mapstyle.StyleDefinition{}, s.config.Styles...)
	local, err := s.services.Files.Definitions()
	if err != nil {
		log.Printf("local styles: %v", err)
	}
	styles = append(styles, local...)

	return s.services.MapStyle.Init(mapstyle.InitConfig{
		MapboxAPIAccessToken: s.config.MapboxAPIAccessToken,
		MapboxAPIURL:         s.config.MapboxAPIURL,
		DefaultStyle:         s.config.DefaultStyle,
		Styles:               styles,
	})
}

// MapStyle returns the map style service.
func (s *Server) MapStyle() *service.MapStyleService {
	return s.services.MapStyle
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close closes server resources.
func (s *Server) Close() error {
	s.services.MapStyle.Close()
	s.loader.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(s.config.DataDir, s.db != nil).RegisterRoutes(s.humaAPI)

	// Register Editor SSE routes using Huma + Datastar SDK
	editor.NewMapStyleHandler(s.services.MapStyle, s.bus).RegisterRoutes(s.humaAPI)

	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-style",
		"status":  "running",
	})
}
