package services

import (
	"strings"
	"time"

	"wardrobeapi/models"
)

func stylistBusy(session *models.StylingSession) bool {
	return session.State != models.StylistIdle && session.State != ""
}

// BeginRecommendation discards the previous suggestion and its rendering.
func BeginRecommendation(session *models.StylingSession, occasion, weather, attemptID string, now time.Time) error {
	if stylistBusy(session) {
		return ErrWorkflowBusy
	}
	session.State = models.StylistRecommending
	session.AttemptID = attemptID
	session.Occasion = strings.TrimSpace(occasion)
	session.Weather = strings.TrimSpace(weather)
	session.Suggestion = nil
	session.VisualizationURL = ""
	session.Notice = ""
	session.StartedAt = now.UnixMilli()
	return nil
}

func stylistCurrent(session *models.StylingSession, state models.StylistState, attemptID string) bool {
	return session.State == state && session.AttemptID == attemptID
}

func finishStylist(session *models.StylingSession) {
	session.State = models.StylistIdle
	session.StartedAt = 0
}

func CompleteRecommendation(session *models.StylingSession, attemptID string, suggestion models.OutfitSuggestion) bool {
	if !stylistCurrent(session, models.StylistRecommending, attemptID) {
		return false
	}
	session.Suggestion = &suggestion
	finishStylist(session)
	return true
}

func FailRecommendation(session *models.StylingSession, attemptID string) bool {
	if !stylistCurrent(session, models.StylistRecommending, attemptID) {
		return false
	}
	session.Notice = NoticeRecommendationFailed
	finishStylist(session)
	return true
}

// BeginVisualization requires a current suggestion; the previous
// rendering is dropped.
func BeginVisualization(session *models.StylingSession, attemptID string, now time.Time) error {
	if stylistBusy(session) {
		return ErrWorkflowBusy
	}
	if session.Suggestion == nil {
		return ErrNoSuggestion
	}
	session.State = models.StylistVisualizing
	session.AttemptID = attemptID
	session.VisualizationURL = ""
	session.Notice = ""
	session.StartedAt = now.UnixMilli()
	return nil
}

func CompleteVisualization(session *models.StylingSession, attemptID string, imageRef string) bool {
	if !stylistCurrent(session, models.StylistVisualizing, attemptID) {
		return false
	}
	session.VisualizationURL = imageRef
	finishStylist(session)
	return true
}

// FailVisualization keeps the suggestion in place.
func FailVisualization(session *models.StylingSession, attemptID string) bool {
	if !stylistCurrent(session, models.StylistVisualizing, attemptID) {
		return false
	}
	session.Notice = NoticeVisualizationFailed
	finishStylist(session)
	return true
}
