// Package main provides the main entry point for the media library manager.
package main

import (
	"log"
	"net/http"
	"time"

	"videotheque/config"
	"videotheque/database"
	"videotheque/jobs"
	"videotheque/repository"
	"videotheque/scanner"
	"videotheque/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

// App represents the application with its dependencies
type App struct {
	cfg         *config.Config
	userRepo    *repository.UserRepository
	movieRepo   *repository.MovieRepository
	showRepo    *repository.ShowRepository
	creditRepo  *repository.CreditRepository
	scanner     *scanner.Scanner
	scanManager *jobs.ScanManager
	jackett     *services.JackettService
	qbittorrent *services.QBittorrentService
	seedbox     *services.SeedboxService
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize database
	db, err := database.NewDB("videotheque.db")
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	// Initialize schema
	if err := db.InitSchema(); err != nil {
		log.Fatal("Failed to initialize schema:", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	movieRepo := repository.NewMovieRepository(db)
	showRepo := repository.NewShowRepository(db)
	creditRepo := repository.NewCreditRepository(db)

	// Initialize metadata provider and prober
	tmdbService := services.NewTMDBService(cfg.TMDBAPIKey)
	prober := services.NewFFProbeService(cfg.FFProbePath)

	// Initialize the library scanner
	sc := scanner.New(cfg, movieRepo, showRepo, creditRepo, tmdbService, prober)

	// Initialize Jackett service
	var jackettService *services.JackettService
	if cfg.JackettAPIKey != "" {
		jackettService = services.NewJackettService(cfg.JackettURL, cfg.JackettAPIKey)
		log.Println("Jackett integration enabled")
	} else {
		log.Println("Warning: JACKETT_API_KEY not set - torrent search will be disabled")
	}

	// Initialize qBittorrent service
	var qbittorrentService *services.QBittorrentService
	if cfg.QBittorrentUsername != "" && cfg.QBittorrentPassword != "" {
		qbittorrentService = services.NewQBittorrentService(cfg.QBittorrentURL, cfg.QBittorrentUsername, cfg.QBittorrentPassword)

		// Test qBittorrent connection
		if err := qbittorrentService.TestConnection(); err != nil {
			log.Printf("Warning: qBittorrent connection failed: %v", err)
			qbittorrentService = nil
		} else {
			log.Println("qBittorrent integration enabled")
		}
	} else {
		log.Println("Warning: qBittorrent credentials not set - torrent management will be disabled")
	}

	// Initialize seedbox FTP service
	var seedboxService *services.SeedboxService
	if cfg.SeedboxAddr != "" {
		seedboxService = services.NewSeedboxService(cfg.SeedboxAddr, cfg.SeedboxUser,
			cfg.SeedboxPassword, cfg.SeedboxRemoteDir, cfg.SeedboxLocalDir)
		log.Println("Seedbox integration enabled")
	} else {
		log.Println("Warning: SEEDBOX_FTP_ADDR not set - seedbox transfers will be disabled")
	}

	// Run the initial full scan before serving catalog data
	log.Println("Running initial library scan...")
	if err := sc.Load(); err != nil {
		log.Printf("Initial library scan failed: %v", err)
	}

	// Subsequent scans are serialized by the manager
	scanManager := jobs.NewScanManager(sc, cfg.ScanInterval)
	scanManager.Start()
	defer scanManager.Stop()

	app := &App{
		cfg:         cfg,
		userRepo:    userRepo,
		movieRepo:   movieRepo,
		showRepo:    showRepo,
		creditRepo:  creditRepo,
		scanner:     sc,
		scanManager: scanManager,
		jackett:     jackettService,
		qbittorrent: qbittorrentService,
		seedbox:     seedboxService,
	}

	r := mux.NewRouter()

	// Health check endpoint
	r.HandleFunc("/health", healthHandler).Methods("GET")

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Users and config
	api.HandleFunc("/users", app.getUsersHandler).Methods("GET")
	api.HandleFunc("/users", app.createUserHandler).Methods("POST")
	api.HandleFunc("/config", app.getConfigHandler).Methods("GET")

	// Movie endpoints
	api.HandleFunc("/movies", app.getMoviesHandler).Methods("GET")
	api.HandleFunc("/movies/{filename:.+}/position", app.setMoviePositionHandler).Methods("POST")
	api.HandleFunc("/movies/{filename:.+}/status", app.setMovieStatusHandler).Methods("POST")
	api.HandleFunc("/movies/{filename:.+}/audience", app.setMovieAudienceHandler).Methods("POST")
	api.HandleFunc("/movies/{filename:.+}/fix-metadata", app.fixMovieMetadataHandler).Methods("POST")
	api.HandleFunc("/movies/{filename:.+}/rename", app.renameMovieHandler).Methods("POST")
	api.HandleFunc("/movies/{filename:.+}", app.deleteMovieHandler).Methods("DELETE")
	api.HandleFunc("/movies/{filename:.+}", app.getMovieHandler).Methods("GET")

	// Show endpoints
	api.HandleFunc("/shows", app.getShowsHandler).Methods("GET")
	api.HandleFunc("/shows/{foldername}/episodes/{filename:.+}/position", app.setEpisodePositionHandler).Methods("POST")
	api.HandleFunc("/shows/{foldername}/episodes/{filename:.+}/status", app.setEpisodeStatusHandler).Methods("POST")
	api.HandleFunc("/shows/{foldername}/status", app.setShowStatusHandler).Methods("POST")
	api.HandleFunc("/shows/{foldername}/audience", app.setShowAudienceHandler).Methods("POST")
	api.HandleFunc("/shows/{foldername}/fix-metadata", app.fixShowMetadataHandler).Methods("POST")
	api.HandleFunc("/shows/{foldername}", app.getShowHandler).Methods("GET")

	// Credits and scanning
	api.HandleFunc("/credits", app.getCreditsHandler).Methods("GET")
	api.HandleFunc("/scan", app.scanHandler).Methods("POST")
	api.HandleFunc("/parse-filename", app.parseFilenameHandler).Methods("GET")

	// Torrent search and client endpoints
	api.HandleFunc("/torrents/search", app.searchTorrentsHandler).Methods("GET")
	api.HandleFunc("/torrents", app.getTorrentsHandler).Methods("GET")
	api.HandleFunc("/torrents", app.addTorrentHandler).Methods("POST")
	api.HandleFunc("/torrents/{hash}", app.removeTorrentHandler).Methods("DELETE")

	// Seedbox endpoints
	api.HandleFunc("/seedbox/files", app.seedboxFilesHandler).Methods("GET")
	api.HandleFunc("/seedbox/download", app.seedboxDownloadHandler).Methods("POST")
	api.HandleFunc("/seedbox/downloads", app.seedboxDownloadsHandler).Methods("GET")
	api.HandleFunc("/seedbox/downloads/{id}/cancel", app.seedboxCancelHandler).Methods("POST")

	log.Printf("Server starting on :%s", cfg.Port)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Fatal(server.ListenAndServe())
}
