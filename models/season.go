package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

type Season string

const (
	SeasonSummer       Season = "SUMMER"
	SeasonWinter       Season = "WINTER"
	SeasonSpringAutumn Season = "SPRING_AUTUMN"
	SeasonAllSeason    Season = "ALL_SEASON"
)

var Seasons = []Season{SeasonSummer, SeasonWinter, SeasonSpringAutumn, SeasonAllSeason}

var seasonLabels = map[Season]string{
	SeasonSummer:       "夏季",
	SeasonWinter:       "冬季",
	SeasonSpringAutumn: "春秋",
	SeasonAllSeason:    "四季通用",
}

func (s *Season) Scan(value interface{}) error {
	*s = Season(value.(string))
	return nil
}

func (s Season) Value() (string, error) {
	return string(s), nil
}

func (s Season) Valid() bool {
	_, ok := seasonLabels[s]
	return ok
}

func (s Season) Label() string {
	if label, ok := seasonLabels[s]; ok {
		return label
	}
	return string(s)
}

func ParseSeason(value string) (Season, error) {
	value = strings.TrimSpace(value)
	candidate := Season(strings.ToUpper(value))
	if candidate.Valid() {
		return candidate, nil
	}
	for season, label := range seasonLabels {
		if label == value {
			return season, nil
		}
	}
	return "", fmt.Errorf("unknown season %q", value)
}

func ValidateSeason(fl validator.FieldLevel) bool {
	return Season(fl.Field().String()).Valid()
}
