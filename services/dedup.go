package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"joreca_dedup/dedup"
	"joreca_dedup/identity"
	"joreca_dedup/models"
)

// Store is the persistence surface the services need. Both storage.SQLiteStore
// and storage.PostgresStore satisfy it.
type Store interface {
	UpsertListings(ctx context.Context, listings []*models.Listing) error
	GetAllListings(ctx context.Context) ([]*models.Listing, error)
	SetDuplicateFlags(ctx context.Context, ids []string) error
	CreateDedupRun(ctx context.Context, run *models.DedupRun) error
	UpdateDedupRun(ctx context.Context, run *models.DedupRun) error
	SaveClusters(ctx context.Context, runID string, summaries []models.EvidenceSummary) error
}

// DedupService runs the detection pipeline over the stored listings and
// persists the outcome: one run record, the cluster partition with its
// evidence, and the exact-duplicate flags on the listings themselves.
type DedupService struct {
	store  Store
	engine *dedup.Engine
}

func NewDedupService(store Store, engine *dedup.Engine) *DedupService {
	return &DedupService{store: store, engine: engine}
}

func (s *DedupService) RunOnce(ctx context.Context) (*dedup.Result, *models.DedupRun, error) {
	listings, err := s.store.GetAllListings(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load listings: %w", err)
	}

	run := &models.DedupRun{
		ID:            uuid.NewString(),
		StartedAt:     time.Now().UTC(),
		Status:        models.RunStatusRunning,
		ListingsTotal: len(listings),
	}
	if err := s.store.CreateDedupRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("create run: %w", err)
	}

	result, err := s.engine.Detect(listings)
	if err != nil {
		s.failRun(ctx, run, err)
		return nil, run, err
	}

	for _, rejected := range result.Rejected {
		log.Printf("Run %s: rejected listing: %v", run.ID[:8], &rejected)
	}
	for _, warning := range result.Warnings {
		log.Printf("Run %s: oversized block %s (%d listings)", run.ID[:8], warning.Key, warning.Size)
	}

	if err := s.store.SaveClusters(ctx, run.ID, result.Summaries); err != nil {
		s.failRun(ctx, run, err)
		return result, run, fmt.Errorf("save clusters: %w", err)
	}

	if err := s.store.SetDuplicateFlags(ctx, ExactDuplicateIDs(listings)); err != nil {
		s.failRun(ctx, run, err)
		return result, run, fmt.Errorf("flag duplicates: %w", err)
	}

	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Status = models.RunStatusCompleted
	run.ListingsValid = len(listings) - len(result.Rejected)
	run.Rejected = len(result.Rejected)
	run.ClustersTotal = len(result.Summaries)
	run.DuplicateSets = result.DuplicateSets()
	run.BlockWarnings = len(result.Warnings)
	if err := s.store.UpdateDedupRun(ctx, run); err != nil {
		return result, run, fmt.Errorf("finish run: %w", err)
	}

	log.Printf("Run %s: %d listings -> %d clusters (%d duplicate sets, %d rejected)",
		run.ID[:8], run.ListingsValid, run.ClustersTotal, run.DuplicateSets, run.Rejected)
	return result, run, nil
}

func (s *DedupService) failRun(ctx context.Context, run *models.DedupRun, cause error) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Status = models.RunStatusFailed
	run.ErrorMessage = cause.Error()
	if err := s.store.UpdateDedupRun(ctx, run); err != nil {
		log.Printf("Error marking run %s failed: %v", run.ID[:8], err)
	}
}

// ExactDuplicateIDs returns the IDs of listings whose fingerprint already
// appeared on an earlier listing. The earliest scrape (then smallest ID)
// within each fingerprint group is kept unflagged.
func ExactDuplicateIDs(listings []*models.Listing) []string {
	groups := make(map[string][]*models.Listing)
	for _, l := range listings {
		fp := identity.Fingerprint(l)
		groups[fp] = append(groups[fp], l)
	}

	var ids []string
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if !group[i].ScrapedAt.Equal(group[j].ScrapedAt) {
				return group[i].ScrapedAt.Before(group[j].ScrapedAt)
			}
			return group[i].ID < group[j].ID
		})
		for _, l := range group[1:] {
			ids = append(ids, l.ID)
		}
	}
	sort.Strings(ids)
	return ids
}
