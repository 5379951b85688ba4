package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/courier/internal/billing"
	"github.com/smallbiznis/courier/internal/clock"
	"github.com/smallbiznis/courier/internal/config"
	entitlementdomain "github.com/smallbiznis/courier/internal/entitlement/domain"
	entitlementrepo "github.com/smallbiznis/courier/internal/entitlement/repository"
	entitlementservice "github.com/smallbiznis/courier/internal/entitlement/service"
	groupdomain "github.com/smallbiznis/courier/internal/group/domain"
	grouprepo "github.com/smallbiznis/courier/internal/group/repository"
	groupservice "github.com/smallbiznis/courier/internal/group/service"
	messagedomain "github.com/smallbiznis/courier/internal/message/domain"
	messagerepo "github.com/smallbiznis/courier/internal/message/repository"
	messageservice "github.com/smallbiznis/courier/internal/message/service"
	"github.com/smallbiznis/courier/internal/notification"
	"github.com/smallbiznis/courier/internal/presence"
	"github.com/smallbiznis/courier/internal/providers/email"
	"github.com/smallbiznis/courier/internal/realtime"
	userdomain "github.com/smallbiznis/courier/internal/user/domain"
	userrepo "github.com/smallbiznis/courier/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	srv   *Server
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	stripForUpdate := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(strings.ReplaceAll(sql, "FOR UPDATE", ""))
		}
	}
	db.Callback().Query().Before("gorm:query").Register("sqlite_skip_for_update", stripForUpdate)
	db.Callback().Row().Before("gorm:row").Register("sqlite_skip_for_update_row", stripForUpdate)

	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&entitlementdomain.Entitlement{},
		&groupdomain.Group{},
		&groupdomain.GroupMember{},
		&messagedomain.Message{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	entSvc := entitlementservice.New(entitlementservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo: entitlementrepo.Provide(),
	})
	groupSvc := groupservice.New(groupservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo:     grouprepo.Provide(),
		UserRepo: userrepo.Provide(),
		EntSvc:   entSvc,
	})
	registry := presence.NewRegistry()
	notifySvc := notification.New(notification.ServiceParam{
		DB: db, Log: log, Clock: fake,
		Registry: registry,
		Email:    &email.NoOpProvider{},
		UserRepo: userrepo.Provide(),
	})
	msgSvc := messageservice.New(messageservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo:     messagerepo.Provide(),
		UserRepo: userrepo.Provide(),
		EntSvc:   entSvc,
		GroupSvc: groupSvc,
		Notifier: notifySvc,
	})
	billingSvc := billing.New(billing.ServiceParam{
		Log:     log,
		Gateway: billing.AcceptAllGateway{},
		EntSvc:  entSvc,
	})
	rtHandler := realtime.NewHandler(realtime.HandlerParam{
		Log:      log,
		Registry: registry,
	})

	srv := NewServer(ServerParams{
		Gin:        NewEngine(),
		Cfg:        config.Config{},
		EntSvc:     entSvc,
		BillingSvc: billingSvc,
		GroupSvc:   groupSvc,
		MsgSvc:     msgSvc,
		RTHandler:  rtHandler,
	})
	srv.RegisterAPIRoutes()

	return &fixture{srv: srv, db: db, node: node, clock: fake}
}

func (f *fixture) createUser(t *testing.T, email string) snowflake.ID {
	t.Helper()
	user := userdomain.User{
		ID:          f.node.Generate(),
		Email:       email,
		DisplayName: strings.Split(email, "@")[0],
		CreatedAt:   f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&user).Error)
	return user.ID
}

func (f *fixture) request(t *testing.T, userID snowflake.ID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	f.srv.Engine().ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestRequiresIdentityHeader(t *testing.T) {
	f := setup(t)

	w := f.request(t, 0, http.MethodGet, "/api/v1/entitlements", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthIsPublic(t *testing.T) {
	f := setup(t)

	w := f.request(t, 0, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPurchaseThenSendFlow(t *testing.T) {
	f := setup(t)
	alice := f.createUser(t, "alice@test.local")
	bob := f.createUser(t, "bob@test.local")

	// Voice message without the feature is forbidden.
	w := f.request(t, alice, http.MethodPost, "/api/v1/messages", gin.H{
		"receiver_id": bob,
		"content":     "listen to this",
		"voice_url":   "https://files.test/note.ogg",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Purchase unlocks it.
	w = f.request(t, alice, http.MethodPost, "/api/v1/entitlements/purchase", gin.H{
		"feature": "voice_message",
		"months":  1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var ent entitlementdomain.Entitlement
	decodeData(t, w, &ent)
	assert.Equal(t, entitlementdomain.FeatureVoiceMessage, ent.Feature)

	w = f.request(t, alice, http.MethodPost, "/api/v1/messages", gin.H{
		"receiver_id": bob,
		"content":     "listen to this",
		"voice_url":   "https://files.test/note.ogg",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var msg messagedomain.Message
	decodeData(t, w, &msg)
	assert.Equal(t, alice, msg.SenderID)

	// The receiver finds it in their inbox and marks it read.
	w = f.request(t, bob, http.MethodGet, "/api/v1/messages/inbox", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var inbox struct {
		Items      []messagedomain.Message `json:"items"`
		TotalCount int64                   `json:"total_count"`
	}
	decodeData(t, w, &inbox)
	require.Len(t, inbox.Items, 1)
	assert.Equal(t, int64(1), inbox.TotalCount)

	w = f.request(t, bob, http.MethodPost, fmt.Sprintf("/api/v1/messages/%d/read", msg.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stored messagedomain.Message
	require.NoError(t, f.db.First(&stored, "id = ?", msg.ID).Error)
	assert.True(t, stored.IsRead)
}

func TestGroupLifecycleOverHTTP(t *testing.T) {
	f := setup(t)
	alice := f.createUser(t, "alice@test.local")
	bob := f.createUser(t, "bob@test.local")

	// Group creation requires the group_chat feature.
	w := f.request(t, alice, http.MethodPost, "/api/v1/groups", gin.H{"name": "general"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.request(t, alice, http.MethodPost, "/api/v1/entitlements", gin.H{
		"feature":  "group_chat",
		"duration": "720h",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.request(t, alice, http.MethodPost, "/api/v1/groups", gin.H{"name": "general"})
	require.Equal(t, http.StatusOK, w.Code)

	var group groupdomain.Group
	decodeData(t, w, &group)

	w = f.request(t, alice, http.MethodPost, fmt.Sprintf("/api/v1/groups/%d/members", group.ID), gin.H{
		"user_id": fmt.Sprintf("%d", bob),
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Duplicate add conflicts.
	w = f.request(t, alice, http.MethodPost, fmt.Sprintf("/api/v1/groups/%d/members", group.ID), gin.H{
		"user_id": fmt.Sprintf("%d", bob),
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.request(t, alice, http.MethodPost, "/api/v1/messages", gin.H{
		"group_id": group.ID,
		"content":  "hello room",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.request(t, bob, http.MethodGet, fmt.Sprintf("/api/v1/groups/%d/messages", group.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var items []messagedomain.Message
	decodeData(t, w, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "hello room", items[0].Content)

	// Member cannot delete, owner can.
	w = f.request(t, bob, http.MethodDelete, fmt.Sprintf("/api/v1/groups/%d", group.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.request(t, alice, http.MethodDelete, fmt.Sprintf("/api/v1/groups/%d", group.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.request(t, alice, http.MethodGet, fmt.Sprintf("/api/v1/groups/%d", group.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorMapping(t *testing.T) {
	f := setup(t)
	alice := f.createUser(t, "alice@test.local")

	// Malformed body.
	w := f.request(t, alice, http.MethodPost, "/api/v1/entitlements", gin.H{
		"feature":  "voice_message",
		"duration": "not-a-duration",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown feature tag.
	w = f.request(t, alice, http.MethodPost, "/api/v1/entitlements", gin.H{
		"feature":  "premium",
		"duration": "24h",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Self-send.
	w = f.request(t, alice, http.MethodPost, "/api/v1/messages", gin.H{
		"receiver_id": alice,
		"content":     "hi me",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown group.
	w = f.request(t, alice, http.MethodGet, fmt.Sprintf("/api/v1/groups/%d", f.node.Generate()), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRevokeAndListEntitlements(t *testing.T) {
	f := setup(t)
	alice := f.createUser(t, "alice@test.local")

	w := f.request(t, alice, http.MethodPost, "/api/v1/entitlements", gin.H{
		"feature":  "file_sharing",
		"duration": "24h",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.request(t, alice, http.MethodGet, "/api/v1/entitlements", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []entitlementdomain.Entitlement
	decodeData(t, w, &items)
	require.Len(t, items, 1)

	w = f.request(t, alice, http.MethodDelete, "/api/v1/entitlements/file_sharing", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var revoked struct {
		Revoked bool `json:"revoked"`
	}
	decodeData(t, w, &revoked)
	assert.True(t, revoked.Revoked)

	w = f.request(t, alice, http.MethodGet, "/api/v1/entitlements", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items = nil
	decodeData(t, w, &items)
	assert.Empty(t, items)
}
