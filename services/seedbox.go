package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jlaffaye/ftp"
)

// SeedboxService downloads finished files from a remote seedbox over FTP.
// One transfer runs at a time, guarded by the downloading flag.
type SeedboxService struct {
	addr      string
	user      string
	password  string
	remoteDir string
	localDir  string

	mu          sync.Mutex
	downloading bool
	downloads   map[string]*Download
	cancels     map[string]context.CancelFunc
}

// RemoteFile is one file on the seedbox.
type RemoteFile struct {
	Name string    `json:"name"`
	Size int64     `json:"size"`
	Time time.Time `json:"time"`
}

// Download states.
const (
	DownloadRunning   = "running"
	DownloadDone      = "done"
	DownloadFailed    = "failed"
	DownloadCancelled = "cancelled"
)

// Download tracks one FTP transfer.
type Download struct {
	ID         string    `json:"id"`
	RemotePath string    `json:"remotePath"`
	Status     string    `json:"status"`
	Progress   float64   `json:"progress"` // percent
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
}

// NewSeedboxService creates a new seedbox FTP service instance
func NewSeedboxService(addr, user, password, remoteDir, localDir string) *SeedboxService {
	return &SeedboxService{
		addr:      addr,
		user:      user,
		password:  password,
		remoteDir: remoteDir,
		localDir:  localDir,
		downloads: make(map[string]*Download),
		cancels:   make(map[string]context.CancelFunc),
	}
}

func (s *SeedboxService) connect(ctx context.Context) (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(s.addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to seedbox: %w", err)
	}
	if err := conn.Login(s.user, s.password); err != nil {
		if err := conn.Quit(); err != nil {
			log.Printf("Failed to close ftp connection: %v", err)
		}
		return nil, fmt.Errorf("seedbox login failed: %w", err)
	}
	return conn, nil
}

// ListFiles lists the files in the seedbox download folder.
func (s *SeedboxService) ListFiles(ctx context.Context) ([]RemoteFile, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := conn.Quit(); err != nil {
			log.Printf("Failed to close ftp connection: %v", err)
		}
	}()

	entries, err := conn.List(s.remoteDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list seedbox files: %w", err)
	}

	var files []RemoteFile
	for _, e := range entries {
		if e.Type != ftp.EntryTypeFile {
			continue
		}
		files = append(files, RemoteFile{Name: e.Name, Size: int64(e.Size), Time: e.Time})
	}
	return files, nil
}

// StartDownload begins transferring one remote file into the local download
// folder. Only one transfer may run at a time.
func (s *SeedboxService) StartDownload(name string) (Download, error) {
	s.mu.Lock()
	if s.downloading {
		s.mu.Unlock()
		return Download{}, fmt.Errorf("a download is already in progress")
	}
	s.downloading = true

	ctx, cancel := context.WithCancel(context.Background())
	d := &Download{
		ID:         uuid.NewString(),
		RemotePath: path.Join(s.remoteDir, name),
		Status:     DownloadRunning,
		StartedAt:  time.Now(),
	}
	s.downloads[d.ID] = d
	s.cancels[d.ID] = cancel
	s.mu.Unlock()

	progress := make(chan float64)
	errc := make(chan error, 1)

	go func() {
		defer close(progress)
		errc <- s.transfer(ctx, d.RemotePath, progress)
	}()

	go func() {
		for p := range progress {
			s.mu.Lock()
			d.Progress = p
			s.mu.Unlock()
		}
		err := <-errc

		s.mu.Lock()
		defer s.mu.Unlock()
		s.downloading = false
		delete(s.cancels, d.ID)
		switch {
		case err == nil:
			d.Status = DownloadDone
			d.Progress = 100
		case errors.Is(err, context.Canceled):
			d.Status = DownloadCancelled
		default:
			d.Status = DownloadFailed
			d.Error = err.Error()
			log.Printf("Seedbox download %s failed: %v", d.RemotePath, err)
		}
	}()

	return *d, nil
}

// CancelDownload cancels a running transfer by id.
func (s *SeedboxService) CancelDownload(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.cancels[id]
	if ok {
		cancel()
	}
	return ok
}

// Downloads returns a snapshot of all known transfers, most recent first.
func (s *SeedboxService) Downloads() []Download {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Download, 0, len(s.downloads))
	for _, d := range s.downloads {
		list = append(list, *d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StartedAt.After(list[j].StartedAt) })
	return list
}

func (s *SeedboxService) transfer(ctx context.Context, remotePath string, progress chan<- float64) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Quit(); err != nil {
			log.Printf("Failed to close ftp connection: %v", err)
		}
	}()

	size, err := conn.FileSize(remotePath)
	if err != nil {
		size = 0 // server may not support SIZE; progress stays at zero
	}

	resp, err := conn.Retr(remotePath)
	if err != nil {
		return fmt.Errorf("failed to retrieve %s: %w", remotePath, err)
	}
	defer func() {
		if err := resp.Close(); err != nil {
			log.Printf("Failed to close ftp transfer: %v", err)
		}
	}()

	if err := os.MkdirAll(s.localDir, 0o755); err != nil {
		return fmt.Errorf("failed to create download folder: %w", err)
	}
	f, err := os.Create(filepath.Join(s.localDir, path.Base(remotePath)))
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close local file: %v", err)
		}
	}()

	buf := make([]byte, 128*1024)
	var written int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := resp.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return fmt.Errorf("failed to write local file: %w", werr)
			}
			written += int64(n)
			if size > 0 {
				progress <- float64(written) / float64(size) * 100
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("transfer failed: %w", err)
		}
	}
}
