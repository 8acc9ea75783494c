package neows

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/neo-approach-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// NeoWs lookup response types. Numeric measurements arrive as decimal strings.

type neoResponse struct {
	ID                string              `json:"id" validate:"required"`
	Name              string              `json:"name" validate:"required"`
	Hazardous         bool                `json:"is_potentially_hazardous_asteroid"`
	CloseApproachData []closeApproachData `json:"close_approach_data" validate:"dive"`
}

type closeApproachData struct {
	Date             string           `json:"close_approach_date"`
	DateFull         string           `json:"close_approach_date_full"`
	EpochMillis      int64            `json:"epoch_date_close_approach"`
	RelativeVelocity relativeVelocity `json:"relative_velocity"`
	MissDistance     missDistance     `json:"miss_distance"`
	OrbitingBody     string           `json:"orbiting_body"`
}

type relativeVelocity struct {
	KilometersPerSecond string `json:"kilometers_per_second" validate:"omitempty,numeric"`
}

type missDistance struct {
	Kilometers string `json:"kilometers" validate:"required,numeric"`
}

func (r neoResponse) toDomain() (domain.NearEarthObject, error) {
	if err := validate.Struct(r); err != nil {
		return domain.NearEarthObject{}, fmt.Errorf("validate neo %q: %w", r.ID, err)
	}

	approaches := make([]domain.CloseApproach, 0, len(r.CloseApproachData))
	for i, cad := range r.CloseApproachData {
		a, err := cad.toDomain()
		if err != nil {
			return domain.NearEarthObject{}, fmt.Errorf("close approach %d: %w", i, err)
		}
		approaches = append(approaches, a)
	}

	return domain.NearEarthObject{
		ID:                   r.ID,
		Name:                 strings.TrimSpace(r.Name),
		PotentiallyHazardous: r.Hazardous,
		Approaches:           approaches,
	}, nil
}

func (c closeApproachData) toDomain() (domain.CloseApproach, error) {
	at, err := c.approachTime()
	if err != nil {
		return domain.CloseApproach{}, err
	}

	km, err := strconv.ParseFloat(c.MissDistance.Kilometers, 64)
	if err != nil {
		return domain.CloseApproach{}, fmt.Errorf("parse miss distance: %w", err)
	}
	dist, err := domain.NewDistance(km)
	if err != nil {
		return domain.CloseApproach{}, err
	}

	var kps float64
	if c.RelativeVelocity.KilometersPerSecond != "" {
		kps, err = strconv.ParseFloat(c.RelativeVelocity.KilometersPerSecond, 64)
		if err != nil {
			return domain.CloseApproach{}, fmt.Errorf("parse relative velocity: %w", err)
		}
	}

	return domain.CloseApproach{
		Time:             at,
		MissDistance:     dist,
		OrbitingBody:     c.OrbitingBody,
		RelativeVelocity: kps,
	}, nil
}

// approachTime prefers the epoch instant and falls back to the calendar date
// at midnight UTC.
func (c closeApproachData) approachTime() (time.Time, error) {
	if c.EpochMillis != 0 {
		return time.UnixMilli(c.EpochMillis).UTC(), nil
	}
	if c.Date == "" {
		return time.Time{}, errors.New("close approach has neither epoch nor date")
	}
	t, err := time.Parse(domain.DateLayout, c.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse close approach date: %w", err)
	}
	return t, nil
}
