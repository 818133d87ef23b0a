// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
)

// ErrRateLimited is returned when a reporter exceeds the per-IP issue quota.
// Callers translate it to 429 at the HTTP boundary.
var ErrRateLimited = errors.New("too many issue reports")

// ErrDuplicateIssue is returned when the same IP already has an open issue
// against the same phrase.
var ErrDuplicateIssue = errors.New("issue already reported")

// IssueService records user reports against phrases. Reports are throttled
// per reporter IP with a token bucket so a single client cannot flood the
// issue table.
type IssueService struct {
	store *Store

	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewIssueService creates an issue service allowing reportsPerMinute
// sustained reports per IP with the given burst.
func NewIssueService(store *Store, reportsPerMinute, burst int) *IssueService {
	return &IssueService{
		store:    store,
		limit:    rate.Limit(float64(reportsPerMinute) / 60.0),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (s *IssueService) limiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[ip]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[ip] = l
	}
	return l
}

// Report files an issue against a phrase. The phrase must exist, the
// reporter must be under quota, and the same IP cannot hold two open issues
// against one phrase.
func (s *IssueService) Report(ctx context.Context, phraseID, issuerIP string) (*model.PhraseIssue, error) {
	if !s.limiter(issuerIP).Allow() {
		return nil, fmt.Errorf("reporter %s: %w", issuerIP, ErrRateLimited)
	}

	var open int
	if err := s.store.db.QueryRowContext(ctx, QryCountActiveIssues, phraseID, issuerIP).Scan(&open); err != nil {
		return nil, fmt.Errorf("count open issues: %w", err)
	}
	if open > 0 {
		return nil, fmt.Errorf("phrase %q: %w", phraseID, ErrDuplicateIssue)
	}

	issue := &model.PhraseIssue{
		ID:        uuid.NewString(),
		PhraseID:  phraseID,
		IssuerIP:  issuerIP,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.store.db.ExecContext(ctx, QryInsertIssue,
		issue.ID, issue.PhraseID, issue.IssuerIP, 1, timestamp(issue.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert issue: %w", err)
	}
	return issue, nil
}

// List returns all open issues, newest first.
func (s *IssueService) List(ctx context.Context) ([]*model.PhraseIssue, error) {
	rows, err := s.store.db.QueryContext(ctx, QryListIssues)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*model.PhraseIssue
	for rows.Next() {
		var (
			issue     model.PhraseIssue
			active    int
			createdAt string
		)
		if err := rows.Scan(&issue.ID, &issue.PhraseID, &issue.IssuerIP, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issue.Active = active != 0
		if issue.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		issues = append(issues, &issue)
	}
	return issues, rows.Err()
}

// Resolve closes an open issue.
func (s *IssueService) Resolve(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, QryResolveIssue, id)
	if err != nil {
		return fmt.Errorf("resolve issue: %w", err)
	}
	return requireRow(res, fmt.Sprintf("issue %q", id))
}
