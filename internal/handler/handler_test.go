package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"facilityops/internal/middleware"
	"facilityops/internal/model"
	"facilityops/internal/repository"
	"facilityops/internal/service"
	"facilityops/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("handler-test-secret")

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Details    []string        `json:"details"`
}

type page struct {
	Items json.RawMessage `json:"items"`
	Total int64           `json:"total"`
}

type api struct {
	router *gin.Engine
	now    time.Time

	property  *model.Property
	mop       *model.ItemMaster
	requester *model.User
	other     *model.User
	manager   *model.User
	admin     *model.User
	executive *model.User
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	a := &api{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	requisitionRepo := repository.NewRequisitionRepository(db)
	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	itemRepo := repository.NewItemMasterRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	engine := service.NewRequisitionService(
		requisitionRepo, propertyRepo, itemRepo, auditRepo,
		repository.NewTransactionManager(db),
		service.RequisitionConfig{
			OrderPrefix:       "REQ",
			IdempotencyWindow: 10 * time.Second,
			Now:               func() time.Time { return a.now },
		},
		zap.NewNop(),
	)
	identity := service.NewIdentityResolver(userRepo)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), nil, zap.NewNop())
	approvals := service.NewApprovalService(engine, identity, notifications, zap.NewNop())

	r := gin.New()
	group := r.Group("/api", middleware.Authenticate(testSecret))
	NewRequisitionHandler(engine, approvals, identity).RegisterRoutes(group)
	NewAuditHandler(service.NewAuditService(auditRepo, userRepo), engine, approvals).RegisterRoutes(group)
	NewStatisticsHandler(service.NewStatisticsService(repository.NewStatisticsRepository(db))).RegisterRoutes(group)
	NewUserHandler(service.NewUserService(userRepo)).RegisterRoutes(group)
	NewApprovalHandler(approvals).RegisterRoutes(group)
	NewCatalogHandler(service.NewCatalogService(propertyRepo, itemRepo)).RegisterRoutes(group)
	NewNotificationHandler(notifications).RegisterRoutes(group)
	a.router = r

	a.property = testutil.CreateProperty(t, db, "WH1", "Warehouse One")
	a.mop = testutil.CreateItemMaster(t, db, "Mop", "Cleaning", "pcs", 5)
	a.requester = testutil.CreateUser(t, db, "rita", model.RoleRequester)
	a.other = testutil.CreateUser(t, db, "oscar", model.RoleRequester)
	a.manager = testutil.CreateUser(t, db, "mona", model.RoleManager)
	a.admin = testutil.CreateUser(t, db, "ada", model.RoleAdmin)
	a.executive = testutil.CreateUser(t, db, "eve", model.RolePurchaseExecutive)
	return a
}

func (a *api) do(t *testing.T, user *model.User, method, path string, body interface{}, headers ...string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  user.ID.String(),
			"role": string(user.Role),
			"name": user.Name,
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString(testSecret)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+signed)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (a *api) body(quantity int) gin.H {
	return gin.H{
		"property_id": a.property.ID.String(),
		"priority":    "normal",
		"items": []gin.H{
			{"item_master_id": a.mop.ID.String(), "quantity": quantity},
		},
	}
}

func (a *api) submit(t *testing.T, user *model.User) service.CreateResult {
	t.Helper()
	code, env := a.do(t, user, http.MethodPost, "/api/requisitions/submit", a.body(2))
	require.Equal(t, http.StatusCreated, code, env.Error)
	var res service.CreateResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	a.now = a.now.Add(time.Minute)
	return res
}

func TestSubmitAndRetry(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(t, a.requester, http.MethodPost, "/api/requisitions/submit", a.body(2), "Idempotency-Key", "form-42")
	require.Equal(t, http.StatusCreated, code)
	var first service.CreateResult
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.Equal(t, "REQ-20240301-0001", first.OrderNumber)
	assert.Equal(t, model.StatusPendingManagerApproval, first.Status)

	a.now = a.now.Add(time.Hour)
	code, env = a.do(t, a.requester, http.MethodPost, "/api/requisitions/submit", a.body(2), "Idempotency-Key", "form-42")
	require.Equal(t, http.StatusOK, code)
	var retry service.CreateResult
	require.NoError(t, json.Unmarshal(env.Data, &retry))
	assert.Equal(t, first.ID, retry.ID)
	assert.Equal(t, service.OutcomeAlreadyExists, retry.Outcome)
}

func TestSubmitValidationErrors(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(t, a.requester, http.MethodPost, "/api/requisitions/submit", a.body(9))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", env.Status)
	assert.Contains(t, env.Details, "items[0].quantity 9 exceeds the unit limit of 5")

	code, env = a.do(t, a.requester, http.MethodPost, "/api/requisitions/validate", a.body(9))
	require.Equal(t, http.StatusOK, code)
	var result service.ValidationResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.Valid)

	code, _ = a.do(t, a.requester, http.MethodPost, "/api/requisitions/submit", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDraftLifecycle(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(t, a.requester, http.MethodPost, "/api/requisitions/drafts", a.body(1))
	require.Equal(t, http.StatusCreated, code)
	var draft service.CreateResult
	require.NoError(t, json.Unmarshal(env.Data, &draft))
	assert.Equal(t, model.StatusDraft, draft.Status)

	path := "/api/requisitions/" + draft.ID.String()

	code, _ = a.do(t, a.other, http.MethodPut, path+"/draft", a.body(3))
	assert.Equal(t, http.StatusForbidden, code)

	code, env = a.do(t, a.requester, http.MethodPut, path+"/draft", a.body(3))
	require.Equal(t, http.StatusOK, code)

	code, env = a.do(t, a.requester, http.MethodPut, path+"/submit", a.body(4))
	require.Equal(t, http.StatusOK, code)
	var submitted service.CreateResult
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	assert.Equal(t, model.StatusPendingManagerApproval, submitted.Status)

	code, env = a.do(t, a.requester, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, code)
	var req model.RequisitionList
	require.NoError(t, json.Unmarshal(env.Data, &req))
	require.Len(t, req.Items, 1)
	assert.Equal(t, 4, req.Items[0].Quantity)
	assert.Equal(t, "Mop", req.Items[0].ItemName)
}

func TestApprovalEndpoints(t *testing.T) {
	a := newAPI(t)
	res := a.submit(t, a.requester)
	path := "/api/requisitions/" + res.ID.String()

	code, _ := a.do(t, a.requester, http.MethodPut, path+"/approve", gin.H{"remarks": "self"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(t, a.manager, http.MethodPut, path+"/reroute", gin.H{"assigned_to": a.executive.ID})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := a.do(t, a.manager, http.MethodPut, path+"/approve", gin.H{"remarks": "go ahead"})
	require.Equal(t, http.StatusOK, code, env.Error)
	var approved model.RequisitionList
	require.NoError(t, json.Unmarshal(env.Data, &approved))
	assert.Equal(t, model.StatusManagerApproved, approved.Status)

	code, _ = a.do(t, a.manager, http.MethodPut, path+"/approve", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = a.do(t, a.manager, http.MethodPut, path+"/reject", gin.H{"reason": ""})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(t, a.admin, http.MethodPut, path+"/reroute", gin.H{"assigned_to": a.executive.ID, "status": "in_progress"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = a.do(t, a.executive, http.MethodPut, path+"/complete", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	var done model.RequisitionList
	require.NoError(t, json.Unmarshal(env.Data, &done))
	assert.Equal(t, model.StatusCompleted, done.Status)

	code, env = a.do(t, a.requester, http.MethodGet, path+"/activity", nil)
	require.Equal(t, http.StatusOK, code)
	var activity []service.ActivityEntry
	require.NoError(t, json.Unmarshal(env.Data, &activity))
	assert.Len(t, activity, 4)
}

func TestListIsScopedByRole(t *testing.T) {
	a := newAPI(t)
	a.submit(t, a.requester)
	a.submit(t, a.requester)
	a.submit(t, a.other)

	total := func(user *model.User, query string) int64 {
		code, env := a.do(t, user, http.MethodGet, "/api/requisitions"+query, nil)
		require.Equal(t, http.StatusOK, code, env.Error)
		var p page
		require.NoError(t, json.Unmarshal(env.Data, &p))
		return p.Total
	}

	assert.EqualValues(t, 2, total(a.requester, ""))
	assert.EqualValues(t, 1, total(a.other, ""))
	assert.EqualValues(t, 3, total(a.manager, ""))
	assert.EqualValues(t, 0, total(a.executive, ""))
	assert.EqualValues(t, 0, total(a.manager, "?status=completed"))

	code, _ := a.do(t, a.manager, http.MethodGet, "/api/requisitions?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestListMatchesViewScope(t *testing.T) {
	a := newAPI(t)
	own := a.submit(t, a.executive)
	assigned := a.submit(t, a.requester)
	a.submit(t, a.requester)

	path := "/api/requisitions/" + assigned.ID.String()
	code, _ := a.do(t, a.manager, http.MethodPut, path+"/approve", nil)
	require.Equal(t, http.StatusOK, code)
	code, env := a.do(t, a.admin, http.MethodPut, path+"/reroute", gin.H{"assigned_to": a.executive.ID})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = a.do(t, a.executive, http.MethodGet, "/api/requisitions", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	var p page
	require.NoError(t, json.Unmarshal(env.Data, &p))
	var listed []model.RequisitionList
	require.NoError(t, json.Unmarshal(p.Items, &listed))
	ids := []uuid.UUID{}
	for _, r := range listed {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{own.ID, assigned.ID}, ids)

	// The stored role decides the scope, not the token claim.
	forged := *a.requester
	forged.Role = model.RoleManager
	code, env = a.do(t, &forged, http.MethodGet, "/api/requisitions", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.EqualValues(t, 2, p.Total)
}

func TestGetErrors(t *testing.T) {
	a := newAPI(t)
	res := a.submit(t, a.requester)

	code, _ := a.do(t, a.requester, http.MethodGet, "/api/requisitions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, a.requester, http.MethodGet, "/api/requisitions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = a.do(t, a.other, http.MethodGet, "/api/requisitions/"+res.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(t, nil, http.MethodGet, "/api/requisitions/"+res.ID.String(), nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestStatsAndOrderNumber(t *testing.T) {
	a := newAPI(t)
	a.submit(t, a.requester)

	code, _ := a.do(t, a.requester, http.MethodGet, "/api/requisitions/stats", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := a.do(t, a.manager, http.MethodGet, "/api/requisitions/stats", nil)
	require.Equal(t, http.StatusOK, code)
	var stats model.RequisitionStatistics
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.EqualValues(t, 1, stats.Total)
	assert.EqualValues(t, 1, stats.AwaitingManager)

	code, env = a.do(t, a.manager, http.MethodGet, "/api/requisitions/stats?start_date=2030-01-01T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.EqualValues(t, 0, stats.Total)

	code, _ = a.do(t, a.manager, http.MethodGet, "/api/requisitions/stats?start_date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(t, a.requester, http.MethodGet, "/api/requisitions/next-order-number", nil)
	require.Equal(t, http.StatusOK, code)
	var next map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &next))
	assert.Equal(t, "REQ-20240301-0002", next["order_number"])
}

func TestCatalogAndNotifications(t *testing.T) {
	a := newAPI(t)
	res := a.submit(t, a.requester)

	code, env := a.do(t, a.requester, http.MethodGet, "/api/item-masters?category=Cleaning", nil)
	require.Equal(t, http.StatusOK, code)
	var items []model.ItemMaster
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)

	code, env = a.do(t, a.requester, http.MethodGet, "/api/properties", nil)
	require.Equal(t, http.StatusOK, code)
	var properties []model.Property
	require.NoError(t, json.Unmarshal(env.Data, &properties))
	assert.Len(t, properties, 1)

	code, _ = a.do(t, a.manager, http.MethodPut, "/api/requisitions/"+res.ID.String()+"/approve", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = a.do(t, a.requester, http.MethodGet, "/api/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, code)
	var p page
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.EqualValues(t, 1, p.Total)
	var notifications []model.Notification
	require.NoError(t, json.Unmarshal(p.Items, &notifications))
	assert.Equal(t, model.NotificationApproved, notifications[0].Type)

	code, _ = a.do(t, a.other, http.MethodPut, "/api/notifications/"+notifications[0].ID.String()+"/read", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = a.do(t, a.requester, http.MethodPut, "/api/notifications/"+notifications[0].ID.String()+"/read", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestUserDirectory(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(t, a.requester, http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, code)
	var me service.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, a.requester.ID, me.ID)
	assert.Equal(t, model.RoleRequester, me.Role)

	code, _ = a.do(t, a.requester, http.MethodGet, "/api/users?role=purchase_executive", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = a.do(t, a.admin, http.MethodGet, "/api/users?role=purchase_executive", nil)
	require.Equal(t, http.StatusOK, code)
	var executives []service.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &executives))
	require.Len(t, executives, 1)
	assert.Equal(t, a.executive.ID, executives[0].ID)

	code, _ = a.do(t, a.admin, http.MethodGet, "/api/users?role=janitor", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
