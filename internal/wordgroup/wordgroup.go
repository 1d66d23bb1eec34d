// Package wordgroup manages named sets of corpus words and the combined
// location index of a group's members.
package wordgroup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
)

// Store is the part of the archive store word groups use.
type Store interface {
	store.GroupStore
	FindTokenID(ctx context.Context, token string) (int64, error)
	TokenLocations(ctx context.Context, token string) ([]store.Location, error)
}

// MemberIndex is one group member and where it occurs.
type MemberIndex struct {
	Word      string           `json:"word"`
	Locations []store.Location `json:"locations"`
}

type Service struct {
	store  Store
	logger *slog.Logger
}

func New(st Store) *Service {
	return &Service{
		store:  st,
		logger: slog.Default().With("component", "wordgroup"),
	}
}

// Create adds a group. Descriptions are unique.
func (s *Service) Create(ctx context.Context, description string) (int64, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return 0, apperrors.Validation("word group description is empty")
	}
	id, err := s.store.CreateWordGroup(ctx, description)
	if err != nil {
		return 0, err
	}
	s.logger.Info("word group created", "id", id, "description", description)
	return id, nil
}

// ID looks a group up by its description.
func (s *Service) ID(ctx context.Context, description string) (int64, error) {
	id, ok, err := s.store.WordGroupID(ctx, description)
	if err != nil {
		return 0, fmt.Errorf("looking up word group: %w", err)
	}
	if !ok {
		return 0, apperrors.NotFound("no word group %q", description)
	}
	return id, nil
}

// AddWord appends word to a group. The word must occur in the corpus and
// may only be added once.
func (s *Service) AddWord(ctx context.Context, description, word string) error {
	groupID, err := s.ID(ctx, description)
	if err != nil {
		return err
	}
	tokenID, err := s.store.FindTokenID(ctx, word)
	if err != nil {
		return fmt.Errorf("looking up word: %w", err)
	}
	if tokenID == store.NoToken {
		return apperrors.NotFound("word %q does not occur in the archive", word)
	}
	if err := s.store.AddGroupToken(ctx, groupID, tokenID); err != nil {
		return err
	}
	s.logger.Info("word added to group", "group", description, "word", word)
	return nil
}

// Members lists a group's words in byte order.
func (s *Service) Members(ctx context.Context, description string) ([]string, error) {
	groupID, err := s.ID(ctx, description)
	if err != nil {
		return nil, err
	}
	words, err := s.store.GroupTokens(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if words == nil {
		words = []string{}
	}
	return words, nil
}

// List returns every group with its members, ordered by description.
func (s *Service) List(ctx context.Context) ([]store.WordGroup, error) {
	groups, err := s.store.WordGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing word groups: %w", err)
	}
	if groups == nil {
		groups = []store.WordGroup{}
	}
	return groups, nil
}

// Index returns the locations of every member of a group, restricted to
// one article when articleID is not zero. Members without locations are
// kept with an empty list.
func (s *Service) Index(ctx context.Context, description string, articleID int64) ([]MemberIndex, error) {
	words, err := s.Members(ctx, description)
	if err != nil {
		return nil, err
	}
	out := make([]MemberIndex, 0, len(words))
	for _, word := range words {
		locations, err := s.store.TokenLocations(ctx, word)
		if err != nil {
			return nil, fmt.Errorf("locating %q: %w", word, err)
		}
		kept := make([]store.Location, 0, len(locations))
		for _, loc := range locations {
			if articleID == 0 || loc.ArticleID == articleID {
				kept = append(kept, loc)
			}
		}
		out = append(out, MemberIndex{Word: word, Locations: kept})
	}
	return out, nil
}
