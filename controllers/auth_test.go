package controllers

import (
	"net/http"
	"testing"

	"wardrobeapi/models"
	"wardrobeapi/test"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndMe(t *testing.T) {
	h := newHarness(t)
	token := h.register(t, "alice")
	h.seedItems(t, "alice", "item-1")

	rec := h.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decode[models.UserMeOut](t, rec)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, 1, me.ItemCount)
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/auth/register", "", models.RegisterIn{Username: "a", Password: "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/auth/register", "", models.RegisterIn{Username: "alice", Password: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterTakenUsername(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice")

	rec := h.do(http.MethodPost, "/auth/register", "", models.RegisterIn{Username: "alice", Password: "another"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "用户名已存在")
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice")

	rec := h.do(http.MethodPost, "/auth/login", "", models.LoginIn{Username: "alice", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[models.AuthOut](t, rec)
	assert.Equal(t, "alice", out.Username)

	rec = h.do(http.MethodGet, "/auth/me", out.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/auth/login", "", models.LoginIn{Username: "alice", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "用户名或密码错误")
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t)
	token := h.register(t, "alice")

	rec := h.do(http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = h.do(http.MethodGet, "/wardrobe/items", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownSessionIsRejected(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice")

	rec := h.do(http.MethodGet, "/wardrobe/items", test.GenerateUserToken("alice", "no-such-session"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/wardrobe/items", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionOfAnotherUserIsRejected(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice")
	bobToken := h.register(t, "bob")

	parsed, _, err := jwt.NewParser().ParseUnverified(bobToken, jwt.MapClaims{})
	require.NoError(t, err)
	bobSession, _ := parsed.Claims.(jwt.MapClaims)["jti"].(string)
	require.NotEmpty(t, bobSession)

	rec := h.do(http.MethodGet, "/auth/me", test.GenerateUserToken("alice", bobSession), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptions(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/options", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	options := decode[OptionsResponse](t, rec)
	require.Len(t, options.Categories, len(models.Categories)+1)
	assert.Equal(t, labeledOption{Value: "ALL", Label: "全部"}, options.Categories[0])
	assert.Equal(t, labeledOption{Value: "TOP", Label: "上装"}, options.Categories[1])
	assert.Len(t, options.Seasons, 4)
	assert.Equal(t, models.SuggestedLocations, options.Locations)
	assert.Equal(t, models.WeatherPresets, options.Weather)
	assert.Equal(t, models.OccasionPresets, options.Occasions)
}

func TestOptionsUnderWardrobe(t *testing.T) {
	h := newHarness(t)
	token := h.register(t, "alice")

	rec := h.do(http.MethodGet, "/wardrobe/options", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.OccasionPresets, decode[OptionsResponse](t, rec).Occasions)
}
