package likes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/store"
)

var ErrInvalidClient = errors.New("invalid client id")

// Service keeps per-client liked flights and the last submitted search form.
type Service struct {
	store store.Store
}

func New(s store.Store) *Service {
	return &Service{store: s}
}

func likeKey(client, flightID string) string {
	return "likes:" + client + ":" + flightID
}

func prefsKey(client string) string {
	return "prefs:" + client
}

func checkClient(client string) error {
	if client == "" || strings.Contains(client, ":") {
		return ErrInvalidClient
	}
	return nil
}

// Like stores f under its flight id. Liking the same flight twice keeps one
// entry.
func (s *Service) Like(ctx context.Context, client string, f models.Flight) error {
	if err := checkClient(client); err != nil {
		return err
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, likeKey(client, f.ID()), data)
}

func (s *Service) Unlike(ctx context.Context, client, flightID string) error {
	if err := checkClient(client); err != nil {
		return err
	}
	return s.store.Delete(ctx, likeKey(client, flightID))
}

func (s *Service) IsLiked(ctx context.Context, client, flightID string) (bool, error) {
	if err := checkClient(client); err != nil {
		return false, err
	}
	_, err := s.store.Get(ctx, likeKey(client, flightID))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns the client's liked flights ordered by flight id.
func (s *Service) List(ctx context.Context, client string) ([]models.Flight, error) {
	if err := checkClient(client); err != nil {
		return nil, err
	}
	keys, err := s.store.List(ctx, likeKey(client, ""))
	if err != nil {
		return nil, err
	}

	flights := make([]models.Flight, 0, len(keys))
	for _, k := range keys {
		data, err := s.store.Get(ctx, k)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var f models.Flight
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode liked flight %s: %w", k, err)
		}
		flights = append(flights, f)
	}
	return flights, nil
}

func (s *Service) SavePreferences(ctx context.Context, client string, p models.SearchParams) error {
	if err := checkClient(client); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, prefsKey(client), data)
}

// Preferences returns the saved search form, or store.ErrNotFound.
func (s *Service) Preferences(ctx context.Context, client string) (models.SearchParams, error) {
	var p models.SearchParams
	if err := checkClient(client); err != nil {
		return p, err
	}
	data, err := s.store.Get(ctx, prefsKey(client))
	if err != nil {
		return p, err
	}
	err = json.Unmarshal(data, &p)
	return p, err
}
