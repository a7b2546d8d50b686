package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/go-ssohub/ssohub/internal/cache"
	"github.com/go-ssohub/ssohub/internal/metrics"
	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/store"
	"github.com/go-ssohub/ssohub/internal/util"
)

var (
	ErrOriginNotFound = errors.New("origin not found")
	ErrOriginExists   = errors.New("origin already in the allow list")
	ErrInvalidOrigin  = errors.New("invalid origin")

	// ErrOriginInUse guards auto-added rows whose source client is still
	// active: removing them would break that client on the next refresh.
	ErrOriginInUse = errors.New("origin belongs to an active client")
)

const originSnapshotKey = "origins:snapshot"

// OriginSnapshot is the immutable allow-list view consulted on every
// cross-origin request. Origins is sorted and duplicate-free.
type OriginSnapshot struct {
	Origins []string `json:"origins"`
}

// Contains reports membership. Absent and "null" origins (non-browser or
// sandboxed callers) are always allowed.
func (s OriginSnapshot) Contains(origin string) bool {
	if origin == "" || origin == "null" {
		return true
	}
	for _, o := range s.Origins {
		if o == origin {
			return true
		}
	}
	return false
}

// OriginService owns the dynamic CORS/CSP allow list: the union of active
// manually curated origins, the configured defaults, and the origins derived
// from every active client's redirect URIs. The snapshot is cached with a
// short TTL and invalidated explicitly on every client or origin mutation.
type OriginService struct {
	store          *store.Store
	cache          cache.CacheWithFetch[OriginSnapshot]
	ttl            time.Duration
	defaultOrigins []string
	metrics        metrics.Recorder
}

func NewOriginService(
	s *store.Store,
	c cache.CacheWithFetch[OriginSnapshot],
	ttl time.Duration,
	defaultOrigins []string,
	issuerURL string,
) *OriginService {
	defaults := append([]string(nil), defaultOrigins...)
	if issuer := util.OriginOf(issuerURL); issuer != "" {
		defaults = append(defaults, issuer)
	}
	return &OriginService{
		store:          s,
		cache:          c,
		ttl:            ttl,
		defaultOrigins: defaults,
		metrics:        metrics.NewNoopMetrics(),
	}
}

// SetMetrics attaches a metrics recorder. The default is a no-op.
func (s *OriginService) SetMetrics(r metrics.Recorder) {
	s.metrics = r
}

// Snapshot returns the current allow list, rebuilding it from the database
// when the cached copy has expired.
func (s *OriginService) Snapshot(ctx context.Context) (OriginSnapshot, error) {
	return s.cache.GetWithFetch(ctx, originSnapshotKey, s.ttl,
		func(ctx context.Context, _ string) (OriginSnapshot, error) {
			return s.buildSnapshot()
		})
}

func (s *OriginService) buildSnapshot() (OriginSnapshot, error) {
	seen := make(map[string]struct{})
	var origins []string
	add := func(origin string) {
		if origin == "" {
			return
		}
		if _, ok := seen[origin]; ok {
			return
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}

	for _, o := range s.defaultOrigins {
		add(o)
	}

	manual, err := s.store.ListActiveOriginValues()
	if err != nil {
		return OriginSnapshot{}, err
	}
	for _, o := range manual {
		add(o)
	}

	clients, err := s.store.ListActiveClients()
	if err != nil {
		return OriginSnapshot{}, err
	}
	for _, client := range clients {
		for _, o := range util.OriginsOf(client.RedirectURIs) {
			add(o)
		}
	}

	sort.Strings(origins)
	s.metrics.RecordOriginSnapshotRebuild(len(origins))
	return OriginSnapshot{Origins: origins}, nil
}

// AllowOrigin decides whether a request Origin header may pass CORS.
// On snapshot failure the decision fails closed for real origins.
func (s *OriginService) AllowOrigin(ctx context.Context, origin string) bool {
	if origin == "" || origin == "null" {
		return true
	}
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		log.Printf("[CORS] Snapshot rebuild failed, rejecting %q: %v", origin, err)
		s.metrics.RecordOriginDecision(false)
		return false
	}
	allowed := snapshot.Contains(origin)
	s.metrics.RecordOriginDecision(allowed)
	return allowed
}

// FormAction builds the CSP form-action directive so the login form may
// target every allowed callback origin.
func (s *OriginService) FormAction(ctx context.Context) string {
	snapshot, err := s.Snapshot(ctx)
	if err != nil || len(snapshot.Origins) == 0 {
		return "'self'"
	}
	return "'self' " + strings.Join(snapshot.Origins, " ")
}

// Refresh drops the cached snapshot so the next request rebuilds it.
func (s *OriginService) Refresh(ctx context.Context) {
	if err := s.cache.Delete(ctx, originSnapshotKey); err != nil {
		log.Printf("[CORS] Failed to invalidate origin snapshot: %v", err)
	}
}

// ManageClientOrigins reconciles the allow list after a client was created or
// its redirect URIs changed. Unseen origins are inserted as auto-added rows
// bound to the client; an auto-added origin previously owned by a different
// client becomes shared and loses its owner.
func (s *OriginService) ManageClientOrigins(ctx context.Context, client *models.Client) error {
	for _, origin := range util.OriginsOf(client.RedirectURIs) {
		row, err := s.store.GetOriginByValue(origin)
		if err != nil {
			created := &models.AllowedOrigin{
				Origin:         origin,
				Description:    "Auto-added from client " + client.ClientID,
				IsActive:       true,
				AutoAdded:      true,
				SourceClientID: client.ClientID,
				OriginType:     models.OriginTypeClient,
			}
			if err := s.store.CreateOrigin(created); err != nil {
				return err
			}
			continue
		}

		if row.AutoAdded && row.SourceClientID != "" && row.SourceClientID != client.ClientID {
			row.OriginType = models.OriginTypeShared
			row.SourceClientID = ""
			if err := s.store.UpdateOrigin(row); err != nil {
				return err
			}
		}
	}

	s.Refresh(ctx)
	return nil
}

// HandleClientDeleted cleans up auto-added origins the deleted client owned.
// An origin still served by another active client's redirect URIs is demoted
// to shared instead of deleted; manual origins are never touched.
func (s *OriginService) HandleClientDeleted(ctx context.Context, client *models.Client) error {
	owned, err := s.store.ListOriginsBySourceClient(client.ClientID)
	if err != nil {
		return err
	}
	if len(owned) == 0 {
		s.Refresh(ctx)
		return nil
	}

	inUse, err := s.activeClientOrigins(client.ClientID)
	if err != nil {
		return err
	}

	for i := range owned {
		row := &owned[i]
		if _, used := inUse[row.Origin]; used {
			row.OriginType = models.OriginTypeShared
			row.SourceClientID = ""
			if err := s.store.UpdateOrigin(row); err != nil {
				return err
			}
			continue
		}
		if err := s.store.DeleteOrigin(row.ID); err != nil {
			return err
		}
	}

	s.Refresh(ctx)
	return nil
}

// activeClientOrigins parses every active client's redirect URIs (excluding
// one client) into the set of origins they serve.
func (s *OriginService) activeClientOrigins(excludeClientID string) (map[string]struct{}, error) {
	clients, err := s.store.ListActiveClients()
	if err != nil {
		return nil, err
	}

	origins := make(map[string]struct{})
	for _, client := range clients {
		if client.ClientID == excludeClientID {
			continue
		}
		for _, o := range util.OriginsOf(client.RedirectURIs) {
			origins[o] = struct{}{}
		}
	}
	return origins, nil
}

type AddOriginRequest struct {
	Origin      string
	Description string
	AddedBy     string
}

// AddOrigin inserts a manual allow-list entry. Adding an origin that already
// exists as an auto-added row converts it to manual instead of failing, so
// administrators can pin a derived origin.
func (s *OriginService) AddOrigin(ctx context.Context, req AddOriginRequest) (*models.AllowedOrigin, error) {
	origin := util.OriginOf(strings.TrimSpace(req.Origin))
	if origin == "" {
		return nil, ErrInvalidOrigin
	}

	existing, err := s.store.GetOriginByValue(origin)
	if err == nil {
		if !existing.AutoAdded {
			return nil, ErrOriginExists
		}
		existing.AutoAdded = false
		existing.OriginType = models.OriginTypeManual
		existing.SourceClientID = ""
		existing.IsActive = true
		if req.Description != "" {
			existing.Description = req.Description
		}
		existing.AddedBy = req.AddedBy
		if err := s.store.UpdateOrigin(existing); err != nil {
			return nil, err
		}
		s.Refresh(ctx)
		return existing, nil
	}

	row := &models.AllowedOrigin{
		Origin:      origin,
		Description: req.Description,
		AddedBy:     req.AddedBy,
		IsActive:    true,
		OriginType:  models.OriginTypeManual,
	}
	if err := s.store.CreateOrigin(row); err != nil {
		return nil, err
	}
	s.Refresh(ctx)
	return row, nil
}

// RemoveOrigin deletes an allow-list row. Auto-added rows whose source client
// is still active cannot be removed; convert them to manual first or delete
// the client.
func (s *OriginService) RemoveOrigin(ctx context.Context, id uint) error {
	row, err := s.store.GetOriginByID(id)
	if err != nil {
		return ErrOriginNotFound
	}

	if row.AutoAdded && row.SourceClientID != "" {
		client, err := s.store.GetClient(row.SourceClientID)
		if err == nil && client.IsActive {
			return ErrOriginInUse
		}
	}

	if err := s.store.DeleteOrigin(row.ID); err != nil {
		return err
	}
	s.Refresh(ctx)
	return nil
}

// ToggleOrigin flips the active flag.
func (s *OriginService) ToggleOrigin(ctx context.Context, id uint) (*models.AllowedOrigin, error) {
	row, err := s.store.GetOriginByID(id)
	if err != nil {
		return nil, ErrOriginNotFound
	}
	row.IsActive = !row.IsActive
	if err := s.store.UpdateOrigin(row); err != nil {
		return nil, err
	}
	s.Refresh(ctx)
	return row, nil
}

// ConvertToManual detaches an auto-added origin from its source client so it
// survives client deletion.
func (s *OriginService) ConvertToManual(ctx context.Context, id uint, actor string) (*models.AllowedOrigin, error) {
	row, err := s.store.GetOriginByID(id)
	if err != nil {
		return nil, ErrOriginNotFound
	}
	row.AutoAdded = false
	row.OriginType = models.OriginTypeManual
	row.SourceClientID = ""
	row.AddedBy = actor
	if err := s.store.UpdateOrigin(row); err != nil {
		return nil, err
	}
	s.Refresh(ctx)
	return row, nil
}

func (s *OriginService) ListOrigins() ([]models.AllowedOrigin, error) {
	return s.store.ListOrigins()
}

func (s *OriginService) GetOrigin(id uint) (*models.AllowedOrigin, error) {
	row, err := s.store.GetOriginByID(id)
	if err != nil {
		return nil, ErrOriginNotFound
	}
	return row, nil
}

// OriginStats summarizes the allow list for the admin dashboard.
type OriginStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Manual    int `json:"manual"`
	AutoAdded int `json:"auto_added"`
	Shared    int `json:"shared"`
}

func (s *OriginService) GetOriginStats() (*OriginStats, error) {
	rows, err := s.store.ListOrigins()
	if err != nil {
		return nil, err
	}

	stats := &OriginStats{Total: len(rows)}
	for _, row := range rows {
		if row.IsActive {
			stats.Active++
		}
		switch row.OriginType {
		case models.OriginTypeManual:
			stats.Manual++
		case models.OriginTypeShared:
			stats.Shared++
		}
		if row.AutoAdded {
			stats.AutoAdded++
		}
	}
	return stats, nil
}
