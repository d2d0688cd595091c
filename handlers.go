package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"videotheque/models"
	"videotheque/repository"
	"videotheque/scanner"

	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// getConfigHandler exposes the library paths and which integrations are
// enabled. Secrets stay out of the response.
func (app *App) getConfigHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"moviesPath": app.cfg.MoviesPath,
		"showsPath":  app.cfg.ShowsPath,
		"imagesPath": app.cfg.ImagesPath,
		"jackett":    app.jackett != nil,
		"torrents":   app.qbittorrent != nil,
		"seedbox":    app.seedbox != nil,
	})
}

func (app *App) getUsersHandler(w http.ResponseWriter, _ *http.Request) {
	users, err := app.userRepo.GetAll()
	if err != nil {
		log.Printf("Error getting users: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (app *App) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(user.Name) == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	if err := app.userRepo.Insert(&user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			http.Error(w, "User already exists", http.StatusConflict)
			return
		}
		log.Printf("Error creating user: %v", err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (app *App) getMoviesHandler(w http.ResponseWriter, _ *http.Request) {
	movies, err := app.movieRepo.GetAll()
	if err != nil {
		log.Printf("Error getting movies: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

func (app *App) getMovieHandler(w http.ResponseWriter, r *http.Request) {
	movie, err := app.movieRepo.GetByFilename(mux.Vars(r)["filename"])
	if err != nil {
		http.Error(w, "Movie not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (app *App) getShowsHandler(w http.ResponseWriter, _ *http.Request) {
	shows, err := app.showRepo.GetAll()
	if err != nil {
		log.Printf("Error getting shows: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, shows)
}

func (app *App) getShowHandler(w http.ResponseWriter, r *http.Request) {
	show, err := app.showRepo.GetByFoldername(mux.Vars(r)["foldername"])
	if err != nil {
		http.Error(w, "Show not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (app *App) getCreditsHandler(w http.ResponseWriter, _ *http.Request) {
	credits, err := app.creditRepo.GetAll()
	if err != nil {
		log.Printf("Error getting credits: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, credits)
}

type statusRequest struct {
	User     string             `json:"user"`
	Status   models.WatchStatus `json:"status"`
	Position float64            `json:"position"`
}

func decodeStatusRequest(w http.ResponseWriter, r *http.Request) (*statusRequest, bool) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if req.User == "" {
		http.Error(w, "User is required", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func (app *App) setMoviePositionHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStatusRequest(w, r)
	if !ok {
		return
	}
	movie, err := app.movieRepo.GetByFilename(mux.Vars(r)["filename"])
	if err != nil {
		http.Error(w, "Movie not found", http.StatusNotFound)
		return
	}

	models.SetPosition(&movie.UserStatuses, req.User, req.Position, movie.Duration)
	if err := app.movieRepo.Update(movie); err != nil {
		log.Printf("Error updating movie: %v", err)
		http.Error(w, "Failed to update movie", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (app *App) setMovieStatusHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStatusRequest(w, r)
	if !ok {
		return
	}
	if !models.ValidWatchStatus(req.Status) {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}
	movie, err := app.movieRepo.GetByFilename(mux.Vars(r)["filename"])
	if err != nil {
		http.Error(w, "Movie not found", http.StatusNotFound)
		return
	}

	models.SetStatus(&movie.UserStatuses, req.User, req.Status)
	if err := app.movieRepo.Update(movie); err != nil {
		log.Printf("Error updating movie: %v", err)
		http.Error(w, "Failed to update movie", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

type audienceRequest struct {
	Audience int `json:"audience"`
}

func (app *App) setMovieAudienceHandler(w http.ResponseWriter, r *http.Request) {
	var req audienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	movie, err := app.movieRepo.GetByFilename(mux.Vars(r)["filename"])
	if err != nil {
		http.Error(w, "Movie not found", http.StatusNotFound)
		return
	}

	movie.Audience = req.Audience
	if err := app.movieRepo.Update(movie); err != nil {
		log.Printf("Error updating movie: %v", err)
		http.Error(w, "Failed to update movie", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

type fixMetadataRequest struct {
	TmdbID int `json:"tmdbId"`
}

func (app *App) fixMovieMetadataHandler(w http.ResponseWriter, r *http.Request) {
	var req fixMetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TmdbID <= 0 {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	filename := mux.Vars(r)["filename"]

	if err := app.scanner.FixMovieMetadata(filename, req.TmdbID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "Movie not found", http.StatusNotFound)
			return
		}
		log.Printf("Error fixing movie metadata: %v", err)
		http.Error(w, "Failed to fix metadata", http.StatusInternalServerError)
		return
	}

	movie, err := app.movieRepo.GetByFilename(filename)
	if err != nil {
		http.Error(w, "Movie not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

type renameRequest struct {
	NewFilename string `json:"newFilename"`
}

// renameMovieHandler and deleteMovieHandler are best-effort: file operation
// failures are logged and answered as a no-op, the record stays unchanged.
func (app *App) renameMovieHandler(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewFilename == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := app.scanner.RenameMovie(mux.Vars(r)["filename"], req.NewFilename); err != nil {
		log.Printf("Rename failed: %v", err)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (app *App) deleteMovieHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.scanner.TrashMovie(mux.Vars(r)["filename"]); err != nil {
		log.Printf("Delete failed: %v", err)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (app *App) setShowStatusHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStatusRequest(w, r)
	if !ok {
		return
	}
	if !models.ValidWatchStatus(req.Status) {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}
	show, err := app.showRepo.GetByFoldername(mux.Vars(r)["foldername"])
	if err != nil {
		http.Error(w, "Show not found", http.StatusNotFound)
		return
	}

	models.SetShowStatus(&show.UserStatuses, req.User, req.Status)
	if err := app.showRepo.Update(show); err != nil {
		log.Printf("Error updating show: %v", err)
		http.Error(w, "Failed to update show", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (app *App) setShowAudienceHandler(w http.ResponseWriter, r *http.Request) {
	var req audienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	show, err := app.showRepo.GetByFoldername(mux.Vars(r)["foldername"])
	if err != nil {
		http.Error(w, "Show not found", http.StatusNotFound)
		return
	}

	show.Audience = req.Audience
	if err := app.showRepo.Update(show); err != nil {
		log.Printf("Error updating show: %v", err)
		http.Error(w, "Failed to update show", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (app *App) fixShowMetadataHandler(w http.ResponseWriter, r *http.Request) {
	var req fixMetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TmdbID <= 0 {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	foldername := mux.Vars(r)["foldername"]

	if err := app.scanner.FixShowMetadata(foldername, req.TmdbID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "Show not found", http.StatusNotFound)
			return
		}
		log.Printf("Error fixing show metadata: %v", err)
		http.Error(w, "Failed to fix metadata", http.StatusInternalServerError)
		return
	}

	show, err := app.showRepo.GetByFoldername(foldername)
	if err != nil {
		http.Error(w, "Show not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (app *App) episodeUpdate(w http.ResponseWriter, r *http.Request, apply func(ep *models.Episode, req *statusRequest)) {
	req, ok := decodeStatusRequest(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	show, err := app.showRepo.GetByFoldername(vars["foldername"])
	if err != nil {
		http.Error(w, "Show not found", http.StatusNotFound)
		return
	}
	ep := show.Episode(vars["filename"])
	if ep == nil {
		http.Error(w, "Episode not found", http.StatusNotFound)
		return
	}

	apply(ep, req)
	if err := app.showRepo.Update(show); err != nil {
		log.Printf("Error updating show: %v", err)
		http.Error(w, "Failed to update show", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ep)
}

func (app *App) setEpisodePositionHandler(w http.ResponseWriter, r *http.Request) {
	app.episodeUpdate(w, r, func(ep *models.Episode, req *statusRequest) {
		models.SetPosition(&ep.UserStatuses, req.User, req.Position, ep.Duration)
	})
}

func (app *App) setEpisodeStatusHandler(w http.ResponseWriter, r *http.Request) {
	app.episodeUpdate(w, r, func(ep *models.Episode, req *statusRequest) {
		models.SetStatus(&ep.UserStatuses, req.User, req.Status)
	})
}

func (app *App) scanHandler(w http.ResponseWriter, _ *http.Request) {
	if app.scanManager.TriggerScan() {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "scan queued"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scan already queued"})
}

func (app *App) parseFilenameHandler(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		http.Error(w, "filename query parameter is required", http.StatusBadRequest)
		return
	}

	response := map[string]interface{}{"movie": scanner.GuessMovie(filename)}
	if guess, ok := scanner.ParseEpisode(filename); ok {
		response["episode"] = guess
	}
	writeJSON(w, http.StatusOK, response)
}

func (app *App) searchTorrentsHandler(w http.ResponseWriter, r *http.Request) {
	if app.jackett == nil {
		http.Error(w, "Torrent search is not configured", http.StatusServiceUnavailable)
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "q query parameter is required", http.StatusBadRequest)
		return
	}

	results, err := app.jackett.Search(query, r.URL.Query().Get("type"))
	if err != nil {
		log.Printf("Torrent search failed: %v", err)
		http.Error(w, "Torrent search failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (app *App) getTorrentsHandler(w http.ResponseWriter, _ *http.Request) {
	if app.qbittorrent == nil {
		http.Error(w, "Torrent client is not configured", http.StatusServiceUnavailable)
		return
	}
	torrents, err := app.qbittorrent.GetTorrents()
	if err != nil {
		log.Printf("Failed to list torrents: %v", err)
		http.Error(w, "Failed to list torrents", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, torrents)
}

type addTorrentRequest struct {
	Magnet   string `json:"magnet"`
	SavePath string `json:"savePath"`
}

func (app *App) addTorrentHandler(w http.ResponseWriter, r *http.Request) {
	if app.qbittorrent == nil {
		http.Error(w, "Torrent client is not configured", http.StatusServiceUnavailable)
		return
	}
	var req addTorrentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Magnet == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := app.qbittorrent.AddTorrent(req.Magnet, req.SavePath); err != nil {
		log.Printf("Failed to add torrent: %v", err)
		http.Error(w, "Failed to add torrent", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (app *App) removeTorrentHandler(w http.ResponseWriter, r *http.Request) {
	if app.qbittorrent == nil {
		http.Error(w, "Torrent client is not configured", http.StatusServiceUnavailable)
		return
	}
	deleteFiles := r.URL.Query().Get("delete_files") == "true"

	if err := app.qbittorrent.RemoveTorrent(mux.Vars(r)["hash"], deleteFiles); err != nil {
		log.Printf("Failed to remove torrent: %v", err)
		http.Error(w, "Failed to remove torrent", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (app *App) seedboxFilesHandler(w http.ResponseWriter, r *http.Request) {
	if app.seedbox == nil {
		http.Error(w, "Seedbox is not configured", http.StatusServiceUnavailable)
		return
	}
	files, err := app.seedbox.ListFiles(r.Context())
	if err != nil {
		log.Printf("Failed to list seedbox files: %v", err)
		http.Error(w, "Failed to list seedbox files", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

type seedboxDownloadRequest struct {
	Name string `json:"name"`
}

func (app *App) seedboxDownloadHandler(w http.ResponseWriter, r *http.Request) {
	if app.seedbox == nil {
		http.Error(w, "Seedbox is not configured", http.StatusServiceUnavailable)
		return
	}
	var req seedboxDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	download, err := app.seedbox.StartDownload(req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusAccepted, download)
}

func (app *App) seedboxDownloadsHandler(w http.ResponseWriter, _ *http.Request) {
	if app.seedbox == nil {
		http.Error(w, "Seedbox is not configured", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, app.seedbox.Downloads())
}

func (app *App) seedboxCancelHandler(w http.ResponseWriter, r *http.Request) {
	if app.seedbox == nil {
		http.Error(w, "Seedbox is not configured", http.StatusServiceUnavailable)
		return
	}
	if !app.seedbox.CancelDownload(mux.Vars(r)["id"]) {
		http.Error(w, "Download not found or already finished", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
