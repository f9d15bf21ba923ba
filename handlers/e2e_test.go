package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anupp-11/smartiplace-logs/config"
	"github.com/anupp-11/smartiplace-logs/database"
	"github.com/anupp-11/smartiplace-logs/handlers"
	"github.com/anupp-11/smartiplace-logs/models"
	"github.com/anupp-11/smartiplace-logs/routes"
)

// testEnv holds shared state for the E2E tests.
type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
}

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	if err := rv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR"})
	}
	return nil
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("smartiplace_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormPg.Open(connStr), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	t.Setenv("JWT_SECRET", "test-secret")
	cfg := &config.Config{
		JWTSecret:            "test-secret",
		CronSecret:           "cron-secret",
		AutoAbsentCutoffHour: 13,
	}

	e := echo.New()
	e.Validator = &requestValidator{v: validator.New()}
	routes.Register(e, cfg)

	server := httptest.NewServer(e)
	t.Cleanup(func() { server.Close() })

	return &testEnv{server: server, db: db}
}

/* ====================== HTTP helpers ====================== */

func doJSON(method, url string, body any, token string) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return http.DefaultClient.Do(req)
}

func postJSON(url string, body any, token string) (*http.Response, error) {
	return doJSON(http.MethodPost, url, body, token)
}

func getWithToken(url, token string) (*http.Response, error) {
	return doJSON(http.MethodGet, url, nil, token)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	return body
}

func decodeList(t *testing.T, resp *http.Response) []map[string]any {
	t.Helper()
	var body []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	return body
}

/* ====================== account helpers ====================== */

func signUp(t *testing.T, env *testEnv, email, password string) {
	t.Helper()
	resp, err := postJSON(env.server.URL+"/auth/signup", map[string]string{
		"email": email, "password": password,
	}, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func login(t *testing.T, env *testEnv, email, password string) string {
	t.Helper()
	resp, err := postJSON(env.server.URL+"/auth/login", map[string]string{
		"email": email, "password": password,
	}, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// makeAdmin signs up an account, promotes it via a direct user_roles insert
// and returns its token.
func makeAdmin(t *testing.T, env *testEnv, email string) string {
	t.Helper()
	signUp(t, env, email, "admin-pass")

	var u models.User
	require.NoError(t, env.db.Where("email = ?", email).First(&u).Error)
	require.NoError(t, env.db.Create(&models.UserRole{UserID: u.ID, Role: models.RoleAdmin}).Error)

	return login(t, env, email, "admin-pass")
}

// makeMember provisions a person with a credential through the admin API and
// returns the member token plus the person id.
func makeMember(t *testing.T, env *testEnv, adminToken, name, email string) (string, uuid.UUID) {
	t.Helper()
	resp, err := postJSON(env.server.URL+"/admin/people", map[string]string{
		"full_name": name,
		"email":     email,
		"password":  "member-pass",
	}, adminToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	personID, err := uuid.Parse(body["id"].(string))
	require.NoError(t, err)

	return login(t, env, email, "member-pass"), personID
}

func todayStr() string {
	return time.Now().Format("2006-01-02")
}

func atHour(h int) time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), h, 0, 0, 0, time.Local)
}

/* ====================== tests ====================== */

func TestSignupDefaultsToMember(t *testing.T) {
	env := setupTestEnv(t)

	signUp(t, env, "worker@example.com", "secret123")
	token := login(t, env, "worker@example.com", "secret123")

	resp, err := getWithToken(env.server.URL+"/me", token)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "member", body["role"])
	assert.Nil(t, body["person"])

	// admin surface stays closed
	resp, err = getWithToken(env.server.URL+"/admin/people", token)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestUnlinkedAccountGetsContactAdmin(t *testing.T) {
	env := setupTestEnv(t)

	signUp(t, env, "nolink@example.com", "secret123")
	token := login(t, env, "nolink@example.com", "secret123")

	resp, err := postJSON(env.server.URL+"/punch/in", nil, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "NOT_LINKED", body["error"])
	assert.Contains(t, body["message"], "Contact admin")
}

func TestAutoLinkOnLogin(t *testing.T) {
	env := setupTestEnv(t)
	adminToken := makeAdmin(t, env, "admin@example.com")

	// person exists first, unlinked
	resp, err := postJSON(env.server.URL+"/admin/people", map[string]string{
		"full_name": "Arisa T.",
		"email":     "arisa@example.com",
	}, adminToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// the matching account signs up and logs in later
	signUp(t, env, "arisa@example.com", "secret123")
	login(t, env, "arisa@example.com", "secret123")

	var p models.Person
	require.NoError(t, env.db.Where("email = ?", "arisa@example.com").First(&p).Error)
	require.NotNil(t, p.UserID)

	var u models.User
	require.NoError(t, env.db.Where("email = ?", "arisa@example.com").First(&u).Error)
	assert.Equal(t, u.ID, *p.UserID)

	// second login is a no-op, not an error
	login(t, env, "arisa@example.com", "secret123")
}

func TestProvisioningIsAtomic(t *testing.T) {
	env := setupTestEnv(t)
	adminToken := makeAdmin(t, env, "admin@example.com")

	makeMember(t, env, adminToken, "First Person", "taken@example.com")

	var peopleBefore int64
	env.db.Model(&models.Person{}).Count(&peopleBefore)

	// same credential email again: the whole create must fail
	resp, err := postJSON(env.server.URL+"/admin/people", map[string]string{
		"full_name": "Second Person",
		"email":     "taken@example.com",
		"password":  "another-pass",
	}, adminToken)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	var peopleAfter int64
	env.db.Model(&models.Person{}).Count(&peopleAfter)
	assert.Equal(t, peopleBefore, peopleAfter, "failed provisioning must not leave a person row")
}

func TestPunchStateMachine(t *testing.T) {
	env := setupTestEnv(t)
	adminToken := makeAdmin(t, env, "admin@example.com")
	token, personID := makeMember(t, env, adminToken, "Somchai P.", "somchai@example.com")

	// nothing yet
	resp, err := getWithToken(env.server.URL+"/punch/today", token)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["has_punched_in"])
	assert.Nil(t, body["status"])

	// punch out before punch in
	resp, err = postJSON(env.server.URL+"/punch/out", nil, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NO_PUNCH_IN_YET", decodeBody(t, resp)["error"])

	// punch in with location
	resp, err = postJSON(env.server.URL+"/punch/in", map[string]any{
		"latitude": 13.7563, "longitude": 100.5018, "address": "HQ",
	}, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// duplicate punch in
	resp, err = postJSON(env.server.URL+"/punch/in", nil, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_PUNCHED_IN", decodeBody(t, resp)["error"])

	// punch out
	resp, err = postJSON(env.server.URL+"/punch/out", nil, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// duplicate punch out
	resp, err = postJSON(env.server.URL+"/punch/out", nil, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_PUNCHED_OUT", decodeBody(t, resp)["error"])

	// exactly one row for (person, today), status present, location stored
	var rows []models.AttendanceLog
	require.NoError(t, env.db.Where("person_id = ? AND attendance_date = ?", personID, todayStr()).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Status)
	assert.Equal(t, models.StatusPresent, *rows[0].Status)
	assert.NotNil(t, rows[0].PunchInTime)
	assert.NotNil(t, rows[0].PunchOutTime)
	assert.Equal(t, "HQ", rows[0].PunchInAddr)

	// today reflects the completed day
	resp, err = getWithToken(env.server.URL+"/punch/today", token)
	require.NoError(t, err)
	body = decodeBody(t, resp)
	assert.Equal(t, true, body["has_punched_in"])
	assert.Equal(t, true, body["has_punched_out"])
	assert.Equal(t, "present", body["status"])
}

func TestLeaveValidationAndOverlap(t *testing.T) {
	env := setupTestEnv(t)
	adminToken := makeAdmin(t, env, "admin@example.com")
	token, _ := makeMember(t, env, adminToken, "Malee K.", "malee@example.com")

	// end before start
	resp, err := postJSON(env.server.URL+"/leave", map[string]string{
		"start_date": "2024-01-12", "end_date": "2024-01-10", "leave_type": "sick",
	}, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "END_BEFORE_START", decodeBody(t, resp)["error"])

	var n int64
	env.db.Model(&models.LeaveRequest{}).Count(&n)
	assert.Zero(t, n, "rejected request must not be written")

	// bad type
	resp, err = postJSON(env.server.URL+"/leave", map[string]string{
		"start_date": "2024-01-10", "end_date": "2024-01-12", "leave_type": "vacation",
	}, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// valid
	resp, err = postJSON(env.server.URL+"/leave", map[string]string{
		"start_date": "2024-01-10", "end_date": "2024-01-12", "leave_type": "sick", "reason": "flu",
	}, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// overlapping, non-rejected
	resp, err = postJSON(env.server.URL+"/leave", map[string]string{
		"start_date": "2024-01-12", "end_date": "2024-01-15", "leave_type": "casual",
	}, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "OVERLAPPING_LEAVE", decodeBody(t, resp)["error"])

	// adjacent but not overlapping is fine
	resp, err = postJSON(env.server.URL+"/leave", map[string]string{
		"start_date": "2024-01-13", "end_date": "2024-01-14", "leave_type": "casual",
	}, token)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestLeaveCancelRules(t *testing.T) {
	env := setupTestEnv(t)
	adminToken := makeAdmin(t, env, "admin@example.com")
	ownerToken, _ := makeMember(t, env, adminToken, "Owner", "owner@example.com")
	otherToken, _ := makeMember(t, env, adminToken, "Other", "other@example.com")

	resp, err := postJSON(env.server.URL+"/leave", map[string]string{
		"start_date": "2024-03-01", "end_date": "2024-03-02", "leave_type": "annual",
	}, ownerToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)
	id := created["id"].(string)

	// someone else cannot cancel
	resp, err = doJSON(http.MethodDelete, env.server.URL+"/leave/"+id, nil, otherToken)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// owner can, while pending
	resp, err = doJSON(http.MethodDelete, env.server.URL+"/leave/"+id, nil, ownerToken)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// cancellation is a hard delete
	var n int64
	env.db.Model(&models.LeaveRequest{}).Where("id = ?", id).Count(&n)
	assert.Zero(t, n)
}

func TestLeaveApprovalMaterializesAttendance(t *testing.T) {
	env := setupTestEnv(t)
	adminToken := makeAdmin(t, env, "admin@example.com")
	token, personID := makeMember(t, env, adminToken, "Nok W.", "nok@example.com")

	resp, err := postJSON(env.server.URL+"/leave", map[string]string{
		"start_date": "2024-01-10", "end_date": "2024-01-12", "leave_type": "annual",
	}, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeBody(t, resp)["id"].(string)

	// pre-existing attendance on a covered date: leave must win
	present := models.StatusPresent
	require.NoError(t, env.db.Create(&models.AttendanceLog{
		PersonID:       personID,
		AttendanceDate: "2024-01-11",
		Status:         &present,
	}).Error)

	// non-admin cannot review
	resp, err = postJSON(env.server.URL+"/admin/leave/"+id+"/review", map[string]string{
		"decision": "approved",
	}, token)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp, err = postJSON(env.server.URL+"/admin/leave/"+id+"/review", map[string]string{
		"decision": "approved", "notes": "enjoy",
	}, adminToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// exactly one leave row per covered date
	for _, day := range []string{"2024-01-10", "2024-01-11", "2024-01-12"} {
		var rows []models.AttendanceLog
		require.NoError(t, env.db.Where("person_id = ? AND attendance_date = ?", personID, day).Find(&rows).Error)
		require.Len(t, rows, 1, day)
		require.NotNil(t, rows[0].Status)
		assert.Equal(t, models.StatusLeave, *rows[0].Status, day)
	}

	// review is final
	resp, err = postJSON(env.server.URL+"/admin/leave/"+id+"/review", map[string]string{
		"decision": "rejected",
	}, adminToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_REVIEWED", decodeBody(t, resp)["error"])

	var lr models.LeaveRequest
	require.NoError(t, env.db.First(&lr, "id = ?", id).Error)
	assert.Equal(t, models.LeaveApproved, lr.Status)
	assert.NotNil(t, lr.ReviewedAt)
	assert.Equal(t, "enjoy", lr.ReviewNotes)
}

func TestBulkUpsertAttendance(t *testing.T) {
	env := setupTestEnv(t)
	adminToken := makeAdmin(t, env, "admin@example.com")
	_, p1 := makeMember(t, env, adminToken, "A One", "a1@example.com")
	_, p2 := makeMember(t, env, adminToken, "B Two", "b2@example.com")

	// empty batch is an error, not a silent success
	resp, err := postJSON(env.server.URL+"/admin/attendance", map[string]any{
		"date": "2024-02-01", "records": []any{},
	}, adminToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "NO_RECORDS_TO_SAVE", decodeBody(t, resp)["error"])

	save := func(status1 string) {
		resp, err := postJSON(env.server.URL+"/admin/attendance", map[string]any{
			"date": "2024-02-01",
			"records": []map[string]any{
				{"person_id": p1, "status": status1, "notes": "by admin"},
				{"person_id": p2, "status": "half-day"},
			},
		}, adminToken)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	save("present")
	save("absent") // same key again: update, not a second row

	var rows []models.AttendanceLog
	require.NoError(t, env.db.Where("attendance_date = ?", "2024-02-01").Find(&rows).Error)
	assert.Len(t, rows, 2)
	for _, r := range rows {
		require.NotNil(t, r.Status)
		if r.PersonID == p1 {
			assert.Equal(t, models.StatusAbsent, *r.Status)
		} else {
			assert.Equal(t, models.StatusHalfDay, *r.Status)
		}
	}
}

func TestAutoAbsent(t *testing.T) {
	env := setupTestEnv(t)
	adminToken := makeAdmin(t, env, "admin@example.com")
	punchToken, punchedID := makeMember(t, env, adminToken, "Early Bird", "early@example.com")
	_, lateID := makeMember(t, env, adminToken, "Late Riser", "late@example.com")

	resp, err := postJSON(env.server.URL+"/punch/in", nil, punchToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// before cutoff: nothing happens
	marked, _, err := handlers.RunAutoAbsent(atHour(12), 13)
	require.NoError(t, err)
	assert.Zero(t, marked)

	// after cutoff: only the person without a punch or status is marked
	marked, names, err := handlers.RunAutoAbsent(atHour(14), 13)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
	assert.Equal(t, []string{"Late Riser"}, names)

	var row models.AttendanceLog
	require.NoError(t, env.db.Where("person_id = ? AND attendance_date = ?", lateID, todayStr()).First(&row).Error)
	require.NotNil(t, row.Status)
	assert.Equal(t, models.StatusAbsent, *row.Status)
	assert.Nil(t, row.RecordedBy, "system mark carries no recorder")

	var punched models.AttendanceLog
	require.NoError(t, env.db.Where("person_id = ? AND attendance_date = ?", punchedID, todayStr()).First(&punched).Error)
	require.NotNil(t, punched.Status)
	assert.Equal(t, models.StatusPresent, *punched.Status, "punched-in person must be untouched")

	// idempotent
	marked, _, err = handlers.RunAutoAbsent(atHour(14), 13)
	require.NoError(t, err)
	assert.Zero(t, marked)

	// the HTTP trigger enforces the shared secret
	resp, err = getWithToken(env.server.URL+"/cron/auto-absent", "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp, err = getWithToken(env.server.URL+"/cron/auto-absent", "cron-secret")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestDashboardStats(t *testing.T) {
	env := setupTestEnv(t)
	adminToken := makeAdmin(t, env, "admin@example.com")

	var personIDs []uuid.UUID
	for i := 0; i < 4; i++ {
		resp, err := postJSON(env.server.URL+"/admin/people", map[string]string{
			"full_name": fmt.Sprintf("Person %d", i),
		}, adminToken)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		id, err := uuid.Parse(decodeBody(t, resp)["id"].(string))
		require.NoError(t, err)
		personIDs = append(personIDs, id)
	}

	resp, err := postJSON(env.server.URL+"/admin/attendance", map[string]any{
		"date": todayStr(),
		"records": []map[string]any{
			{"person_id": personIDs[0], "status": "present"},
			{"person_id": personIDs[1], "status": "present"},
			{"person_id": personIDs[2], "status": "absent"},
		},
	}, adminToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = getWithToken(env.server.URL+"/admin/dashboard/stats", adminToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decodeBody(t, resp)
	assert.EqualValues(t, 4, stats["total_people"])
	assert.EqualValues(t, 2, stats["today_present"])
	assert.EqualValues(t, 1, stats["today_absent"])
	assert.EqualValues(t, 1, stats["today_pending"])
}

func TestDeletePersonCascades(t *testing.T) {
	env := setupTestEnv(t)
	adminToken := makeAdmin(t, env, "admin@example.com")
	token, personID := makeMember(t, env, adminToken, "Gone Soon", "gone@example.com")

	resp, err := postJSON(env.server.URL+"/punch/in", nil, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = postJSON(env.server.URL+"/leave", map[string]string{
		"start_date": "2024-05-01", "end_date": "2024-05-02", "leave_type": "other",
	}, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err = doJSON(http.MethodDelete, env.server.URL+"/admin/people/"+personID.String(), nil, adminToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var logs, leaves int64
	env.db.Model(&models.AttendanceLog{}).Where("person_id = ?", personID).Count(&logs)
	env.db.Model(&models.LeaveRequest{}).Where("person_id = ?", personID).Count(&leaves)
	assert.Zero(t, logs, "attendance rows must cascade")
	assert.Zero(t, leaves, "leave rows must cascade")
}

func TestListLogsPaginationAndExport(t *testing.T) {
	env := setupTestEnv(t)
	adminToken := makeAdmin(t, env, "admin@example.com")
	_, personID := makeMember(t, env, adminToken, `Quote "Fan"`, "quote@example.com")

	for i := 1; i <= 5; i++ {
		resp, err := postJSON(env.server.URL+"/admin/attendance", map[string]any{
			"date": fmt.Sprintf("2024-04-%02d", i),
			"records": []map[string]any{
				{"person_id": personID, "status": "present", "notes": `He said "hi"`},
			},
		}, adminToken)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := getWithToken(env.server.URL+"/admin/logs?page=1&limit=2&person_id="+personID.String(), adminToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.EqualValues(t, 5, body["count"])
	assert.EqualValues(t, 3, body["total_pages"])
	data := body["data"].([]any)
	require.Len(t, data, 2)
	// newest date first
	first := data[0].(map[string]any)
	assert.Equal(t, "2024-04-05", first["attendance_date"])
	assert.Equal(t, `Quote "Fan"`, first["full_name"])

	// filtered export
	resp, err = getWithToken(env.server.URL+"/admin/logs/export?date_from=2024-04-02&date_to=2024-04-03", adminToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	csvText := buf.String()
	assert.Contains(t, csvText, "Date,Person,Role,Status,Punch In,In Location,Punch Out,Out Location,Notes,Recorded At")
	assert.Contains(t, csvText, `"He said ""hi"""`)
	assert.Contains(t, csvText, "2024-04-02")
	assert.NotContains(t, csvText, "2024-04-01")
}
