package handlers_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"managemint/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type statsBody struct {
	Count    int64   `json:"count"`
	Total    float64 `json:"total"`
	ByStatus []struct {
		Status string  `json:"status"`
		Count  int64   `json:"count"`
		Total  float64 `json:"total"`
	} `json:"byStatus"`
}

//
// CONSULTANTS
//

func TestConsultantLifecycle(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)

	created := expect[models.Consultant](t, e.do(http.MethodPost, "/consultants", gin.H{
		"name": "Ana Silva", "technology": "Go", "experienceYears": 7,
	}, m), http.StatusCreated)
	assert.Equal(t, models.ConsultantMarketing, created.Status)
	assert.Equal(t, m.ID, created.MarketerID)
	path := "/consultants/" + created.ID.String()

	got := expect[models.Consultant](t, e.do(http.MethodGet, path, nil, m), http.StatusOK)
	assert.Equal(t, "Ana Silva", got.Name)

	updated := expect[models.Consultant](t, e.do(http.MethodPatch, path, gin.H{"status": "Placed"}, m), http.StatusOK)
	assert.Equal(t, models.ConsultantPlaced, updated.Status)
	assert.Equal(t, "Go", updated.Technology, "fields not in the body are kept")

	got = expect[models.Consultant](t, e.do(http.MethodGet, path, nil, m), http.StatusOK)
	assert.Equal(t, models.ConsultantPlaced, got.Status)

	assert.Equal(t, http.StatusOK, e.do(http.MethodDelete, path, nil, m).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, path, nil, m).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, path, nil, m).Code)
}

func TestConsultantValidation(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)

	cases := []struct {
		name string
		body gin.H
	}{
		{"MissingName", gin.H{"technology": "Go"}},
		{"BlankName", gin.H{"name": "   "}},
		{"UnknownStatus", gin.H{"name": "X", "status": "Hired"}},
		{"BadEmail", gin.H{"name": "X", "email": "not-an-email"}},
		{"NegativeExperience", gin.H{"name": "X", "experienceYears": -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/consultants", tc.body, m)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	var n int64
	require.NoError(t, e.db.Model(&models.Consultant{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestConsultantOwnership(t *testing.T) {
	e := newEnv(t)
	owner := e.user(models.RoleMarketer)
	other := e.user(models.RoleMarketer)
	admin := e.user(models.RoleAdmin)
	engineer := e.user(models.RoleUser)

	created := expect[models.Consultant](t, e.do(http.MethodPost, "/consultants", gin.H{"name": "Li Wei"}, owner), http.StatusCreated)
	path := "/consultants/" + created.ID.String()

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, path, nil, other).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPatch, path, gin.H{"name": "Stolen"}, other).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodDelete, path, nil, other).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/consultants", nil, engineer).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/consultants", nil, nil).Code)

	assert.Empty(t, expect[[]models.Consultant](t, e.do(http.MethodGet, "/consultants", nil, other), http.StatusOK))
	assert.Len(t, expect[[]models.Consultant](t, e.do(http.MethodGet, "/consultants", nil, owner), http.StatusOK), 1)
	assert.Len(t, expect[[]models.Consultant](t, e.do(http.MethodGet, "/consultants", nil, admin), http.StatusOK), 1)

	// a non-admin cannot hand a record to someone else
	w := e.do(http.MethodPost, "/consultants", gin.H{"name": "Gift", "marketerId": other.ID}, owner)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assigned := expect[models.Consultant](t, e.do(http.MethodPost, "/consultants", gin.H{"name": "Assigned", "marketerId": other.ID}, admin), http.StatusCreated)
	assert.Equal(t, other.ID, assigned.MarketerID)

	w = e.do(http.MethodPost, "/consultants", gin.H{"name": "Nope", "marketerId": engineer.ID}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConsultantListFilters(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)
	for _, body := range []gin.H{
		{"name": "Ada", "technology": "Golang", "status": "Placed"},
		{"name": "Bea", "technology": "Java"},
		{"name": "Cal", "technology": "golang"},
	} {
		expect[models.Consultant](t, e.do(http.MethodPost, "/consultants", body, m), http.StatusCreated)
	}

	list := func(query string) []models.Consultant {
		return expect[[]models.Consultant](t, e.do(http.MethodGet, "/consultants"+query, nil, m), http.StatusOK)
	}
	assert.Len(t, list(""), 3)
	assert.Len(t, list("?status=Placed"), 1)
	assert.Len(t, list("?technology=GOLANG"), 2)
	assert.Len(t, list("?search=be"), 1)
	assert.Len(t, list("?limit=2"), 2)

	today := time.Now().UTC().Format("2006-01-02")
	assert.Len(t, list("?from="+today+"&to="+today), 3)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/consultants?from=2024-02-01&to=2024-01-01", nil, m).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/consultants?marketerId=nope", nil, m).Code)
}

func TestConsultantProfile(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)
	c := expect[models.Consultant](t, e.do(http.MethodPost, "/consultants", gin.H{"name": "Ida"}, m), http.StatusCreated)
	path := "/consultants/" + c.ID.String() + "/profile"

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, path, nil, m).Code)

	p := expect[models.Profile](t, e.do(http.MethodPut, path, gin.H{"summary": "Backend engineer", "skills": "Go, SQL"}, m), http.StatusCreated)
	assert.Equal(t, m.ID, p.MarketerID)

	p2 := expect[models.Profile](t, e.do(http.MethodPut, path, gin.H{"skills": "Go, SQL, Kafka"}, m), http.StatusOK)
	assert.Equal(t, p.ID, p2.ID, "one profile per consultant")
	assert.Equal(t, "Backend engineer", p2.Summary)
	assert.Equal(t, "Go, SQL, Kafka", p2.Skills)

	got := expect[models.Consultant](t, e.do(http.MethodGet, "/consultants/"+c.ID.String(), nil, m), http.StatusOK)
	require.NotNil(t, got.Profile)
	assert.Equal(t, p.ID, got.Profile.ID)

	w := e.do(http.MethodPut, path, gin.H{"resumeUrl": "not a url"}, m)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConsultantReassign(t *testing.T) {
	e := newEnv(t)
	admin := e.user(models.RoleAdmin)
	from := e.user(models.RoleMarketer)
	to := e.user(models.RoleMarketer)
	f := seedPipeline(t, e, from)

	w := e.do(http.MethodPatch, "/consultants/"+f.consultant.ID.String(), gin.H{"marketerId": to.ID}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, model := range []any{&models.Submission{}, &models.Assessment{}} {
		var n int64
		require.NoError(t, e.db.Model(model).Where("marketer_id = ?", to.ID).Count(&n).Error)
		assert.EqualValues(t, 1, n)
	}
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/submissions/"+f.submission.ID.String(), nil, to).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/submissions/"+f.submission.ID.String(), nil, from).Code)
}

func TestConsultantReassignRollsBack(t *testing.T) {
	e := newEnv(t)
	admin := e.user(models.RoleAdmin)
	from := e.user(models.RoleMarketer)
	to := e.user(models.RoleMarketer)
	f := seedPipeline(t, e, from)

	require.NoError(t, e.db.Callback().Update().Before("gorm:update").Register("test:fail_consultant", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "consultants" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	w := e.do(http.MethodPatch, "/consultants/"+f.consultant.ID.String(), gin.H{"marketerId": to.ID}, admin)
	require.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())

	for _, model := range []any{&models.Submission{}, &models.Assessment{}, &models.Consultant{}} {
		var n int64
		require.NoError(t, e.db.Model(model).Where("marketer_id = ?", from.ID).Count(&n).Error)
		assert.EqualValues(t, 1, n, "%T stays with the original marketer", model)
	}
}

//
// PIPELINE: clients, POCs, vendors, IPs, submissions, assessments
//

type pipeline struct {
	consultant models.Consultant
	client     models.Client
	poc        models.POC
	vendor     models.Vendor
	submission models.Submission
	assessment models.Assessment
}

// seedPipeline creates a consultant submitted to a client with one assessment,
// all through the API as m.
func seedPipeline(t *testing.T, e *env, m *models.User) pipeline {
	t.Helper()
	var p pipeline
	p.consultant = expect[models.Consultant](t, e.do(http.MethodPost, "/consultants", gin.H{"name": "Omar"}, m), http.StatusCreated)
	p.client = expect[models.Client](t, e.do(http.MethodPost, "/clients", gin.H{"name": "Acme " + uuid.NewString()[:6]}, m), http.StatusCreated)
	p.poc = expect[models.POC](t, e.do(http.MethodPost, "/pocs", gin.H{"clientId": p.client.ID, "name": "Pat", "type": "Recruiter"}, m), http.StatusCreated)
	p.vendor = expect[models.Vendor](t, e.do(http.MethodPost, "/vendors", gin.H{"name": "Vendco"}, m), http.StatusCreated)
	p.submission = expect[models.Submission](t, e.do(http.MethodPost, "/submissions", gin.H{
		"consultantId": p.consultant.ID,
		"clientId":     p.client.ID,
		"vendorId":     p.vendor.ID,
		"pocId":        p.poc.ID,
		"jobTitle":     "Platform Engineer",
		"rate":         "85/hr",
	}, m), http.StatusCreated)
	p.assessment = expect[models.Assessment](t, e.do(http.MethodPost, "/assessments", gin.H{
		"consultantId": p.consultant.ID,
		"clientId":     p.client.ID,
		"submissionId": p.submission.ID,
		"type":         "Technical Test",
		"scheduledAt":  rfc3339(time.Now().Add(48 * time.Hour)),
	}, m), http.StatusCreated)
	return p
}

func TestSubmissionDefaults(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)
	p := seedPipeline(t, e, m)

	assert.Equal(t, models.SubmissionPending, p.submission.Status)
	assert.Equal(t, m.ID, p.submission.MarketerID)
	assert.WithinDuration(t, time.Now(), p.submission.SubmittedAt, time.Minute)
	assert.Equal(t, models.AssessmentPending, p.assessment.Status)
	assert.Equal(t, models.POCRecruiter, p.poc.Type)

	got := expect[models.Submission](t, e.do(http.MethodPatch, "/submissions/"+p.submission.ID.String(), gin.H{
		"status":   "Accepted",
		"vendorId": uuid.Nil,
	}, m), http.StatusOK)
	assert.Equal(t, models.SubmissionAccepted, got.Status)
	assert.Nil(t, got.VendorID, "the nil UUID clears an optional reference")
	assert.Equal(t, p.poc.ID, *got.POCID)
}

func TestSubmissionReferences(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)
	other := e.user(models.RoleMarketer)
	p := seedPipeline(t, e, m)
	foreign := seedPipeline(t, e, other)
	otherClient := expect[models.Client](t, e.do(http.MethodPost, "/clients", gin.H{"name": "Globex"}, m), http.StatusCreated)

	base := func() gin.H {
		return gin.H{"consultantId": p.consultant.ID, "clientId": p.client.ID, "jobTitle": "SRE"}
	}

	body := base()
	delete(body, "clientId")
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/submissions", body, m).Code)

	body = base()
	body["clientId"] = uuid.New()
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/submissions", body, m).Code)

	body = base()
	body["consultantId"] = foreign.consultant.ID
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/submissions", body, m).Code)

	body = base()
	body["clientId"] = otherClient.ID
	body["pocId"] = p.poc.ID
	w := e.do(http.MethodPost, "/submissions", body, m)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "pocId")

	w = e.do(http.MethodPost, "/assessments", gin.H{
		"consultantId": foreign.consultant.ID,
		"clientId":     p.client.ID,
		"type":         "Interview",
	}, other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/assessments", gin.H{
		"consultantId": p.consultant.ID,
		"clientId":     p.client.ID,
		"type":         "Lunch",
	}, m)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConsultantDeleteCascades(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)
	p := seedPipeline(t, e, m)
	expect[models.Profile](t, e.do(http.MethodPut, "/consultants/"+p.consultant.ID.String()+"/profile", gin.H{"summary": "x"}, m), http.StatusCreated)
	call := expect[models.Call](t, e.do(http.MethodPost, "/calls", gin.H{"contactName": "Omar", "consultantId": p.consultant.ID}, m), http.StatusCreated)

	require.Equal(t, http.StatusOK, e.do(http.MethodDelete, "/consultants/"+p.consultant.ID.String(), nil, m).Code)

	for _, model := range []any{&models.Profile{}, &models.Submission{}, &models.Assessment{}} {
		var n int64
		require.NoError(t, e.db.Model(model).Where("consultant_id = ?", p.consultant.ID).Count(&n).Error)
		assert.Zero(t, n)
	}
	var kept models.Call
	require.NoError(t, e.db.First(&kept, "id = ?", call.ID).Error)
	assert.Nil(t, kept.ConsultantID)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/clients/"+p.client.ID.String(), nil, m).Code)
}

func TestClientDeleteRestricted(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)
	p := seedPipeline(t, e, m)
	clientPath := "/clients/" + p.client.ID.String()

	assert.Equal(t, http.StatusConflict, e.do(http.MethodDelete, clientPath, nil, m).Code)

	require.Equal(t, http.StatusOK, e.do(http.MethodDelete, "/submissions/"+p.submission.ID.String(), nil, m).Code)
	var a models.Assessment
	require.NoError(t, e.db.First(&a, "id = ?", p.assessment.ID).Error)
	assert.Nil(t, a.SubmissionID, "assessments outlive their submission")

	assert.Equal(t, http.StatusConflict, e.do(http.MethodDelete, clientPath, nil, m).Code)
	require.Equal(t, http.StatusOK, e.do(http.MethodDelete, "/assessments/"+p.assessment.ID.String(), nil, m).Code)

	require.Equal(t, http.StatusOK, e.do(http.MethodDelete, clientPath, nil, m).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/pocs/"+p.poc.ID.String(), nil, m).Code)
}

func TestClientDetailAndPOCs(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)
	p := seedPipeline(t, e, m)
	expect[models.POC](t, e.do(http.MethodPost, "/pocs", gin.H{"clientId": p.client.ID, "name": "Ann"}, m), http.StatusCreated)

	got := expect[models.Client](t, e.do(http.MethodGet, "/clients/"+p.client.ID.String(), nil, m), http.StatusOK)
	require.Len(t, got.POCs, 2)
	assert.Equal(t, "Ann", got.POCs[0].Name)
	assert.Equal(t, models.POCOther, got.POCs[0].Type, "POC type defaults to Other")

	pocs := expect[[]models.POC](t, e.do(http.MethodGet, "/clients/"+p.client.ID.String()+"/pocs", nil, m), http.StatusOK)
	assert.Len(t, pocs, 2)
	filtered := expect[[]models.POC](t, e.do(http.MethodGet, "/pocs?clientId="+p.client.ID.String()+"&type=Recruiter", nil, m), http.StatusOK)
	assert.Len(t, filtered, 1)

	w := e.do(http.MethodPost, "/clients", gin.H{"name": p.client.Name}, m)
	assert.Equal(t, http.StatusBadRequest, w.Code, "client names are unique per marketer")
	w = e.do(http.MethodPost, "/pocs", gin.H{"name": "Orphan"}, m)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVendorAndIPDeleteUnlinkSubmissions(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)
	p := seedPipeline(t, e, m)
	ip := expect[models.IP](t, e.do(http.MethodPost, "/ips", gin.H{"name": "Prime Co"}, m), http.StatusCreated)
	expect[models.Submission](t, e.do(http.MethodPatch, "/submissions/"+p.submission.ID.String(), gin.H{"ipId": ip.ID}, m), http.StatusOK)

	require.Equal(t, http.StatusOK, e.do(http.MethodDelete, "/vendors/"+p.vendor.ID.String(), nil, m).Code)
	require.Equal(t, http.StatusOK, e.do(http.MethodDelete, "/ips/"+ip.ID.String(), nil, m).Code)

	got := expect[models.Submission](t, e.do(http.MethodGet, "/submissions/"+p.submission.ID.String(), nil, m), http.StatusOK)
	assert.Nil(t, got.VendorID)
	assert.Nil(t, got.IPID)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/vendors", gin.H{"website": "x"}, m).Code)
}

func TestSubmissionStats(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)
	p := seedPipeline(t, e, m)
	expect[models.Submission](t, e.do(http.MethodPost, "/submissions", gin.H{
		"consultantId": p.consultant.ID, "clientId": p.client.ID, "jobTitle": "Data Engineer", "status": "Rejected",
	}, m), http.StatusCreated)

	stats := expect[statsBody](t, e.do(http.MethodGet, "/submissions/stats", nil, m), http.StatusOK)
	assert.EqualValues(t, 2, stats.Count)
	require.Len(t, stats.ByStatus, 2)
	assert.Equal(t, "Pending", stats.ByStatus[0].Status)
	assert.Equal(t, "Rejected", stats.ByStatus[1].Status)

	other := expect[statsBody](t, e.do(http.MethodGet, "/submissions/stats", nil, e.user(models.RoleMarketer)), http.StatusOK)
	assert.Zero(t, other.Count)
}

//
// CALLS
//

func TestCalls(t *testing.T) {
	e := newEnv(t)
	u := e.user(models.RoleUser)
	other := e.user(models.RoleUser)

	first := expect[models.Call](t, e.do(http.MethodPost, "/calls", gin.H{"contactName": "Jo", "durationMinutes": 10}, u), http.StatusCreated)
	assert.Equal(t, models.CallOutbound, first.Direction)
	assert.Equal(t, models.CallCompleted, first.Status)
	expect[models.Call](t, e.do(http.MethodPost, "/calls", gin.H{"contactName": "Kim", "durationMinutes": 20, "direction": "inbound"}, u), http.StatusCreated)
	expect[models.Call](t, e.do(http.MethodPost, "/calls", gin.H{"contactName": "Lu", "durationMinutes": 5, "status": "missed"}, u), http.StatusCreated)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/calls", gin.H{"direction": "sideways", "contactName": "X"}, u).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/calls", gin.H{"phone": "555"}, u).Code)

	stats := expect[statsBody](t, e.do(http.MethodGet, "/calls/stats", nil, u), http.StatusOK)
	assert.EqualValues(t, 3, stats.Count)
	assert.InDelta(t, 35, stats.Total, 0.001)

	assert.Len(t, expect[[]models.Call](t, e.do(http.MethodGet, "/calls?direction=inbound", nil, u), http.StatusOK), 1)
	assert.Empty(t, expect[[]models.Call](t, e.do(http.MethodGet, "/calls", nil, other), http.StatusOK))
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/calls/"+first.ID.String(), nil, other).Code)

	updated := expect[models.Call](t, e.do(http.MethodPut, "/calls/"+first.ID.String(), gin.H{"notes": "call back Friday"}, u), http.StatusOK)
	assert.Equal(t, "Jo", updated.ContactName)
	assert.Equal(t, "call back Friday", updated.Notes)
}

func TestSubmissionClientChangeChecksPOC(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)
	p := seedPipeline(t, e, m)
	other := expect[models.Client](t, e.do(http.MethodPost, "/clients", gin.H{"name": "Globex"}, m), http.StatusCreated)
	otherPOC := expect[models.POC](t, e.do(http.MethodPost, "/pocs", gin.H{"clientId": other.ID, "name": "Sam"}, m), http.StatusCreated)
	path := "/submissions/" + p.submission.ID.String()

	w := e.do(http.MethodPatch, path, gin.H{"clientId": other.ID}, m)
	assert.Equal(t, http.StatusBadRequest, w.Code, "the old client's contact cannot follow the submission")
	var stored models.Submission
	require.NoError(t, e.db.First(&stored, "id = ?", p.submission.ID).Error)
	assert.Equal(t, p.client.ID, stored.ClientID)

	w = e.do(http.MethodPatch, path, gin.H{"clientId": other.ID, "pocId": p.poc.ID}, m)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	moved := expect[models.Submission](t, e.do(http.MethodPatch, path, gin.H{"clientId": other.ID, "pocId": otherPOC.ID}, m), http.StatusOK)
	assert.Equal(t, other.ID, moved.ClientID)
	require.NotNil(t, moved.POCID)
	assert.Equal(t, otherPOC.ID, *moved.POCID)

	cleared := expect[models.Submission](t, e.do(http.MethodPatch, path, gin.H{"clientId": p.client.ID, "pocId": uuid.Nil}, m), http.StatusOK)
	assert.Equal(t, p.client.ID, cleared.ClientID)
	assert.Nil(t, cleared.POCID)
}

func TestPOCMoveUnlinksSubmissions(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)
	p := seedPipeline(t, e, m)
	other := expect[models.Client](t, e.do(http.MethodPost, "/clients", gin.H{"name": "Globex"}, m), http.StatusCreated)

	poc := expect[models.POC](t, e.do(http.MethodPatch, "/pocs/"+p.poc.ID.String(), gin.H{"clientId": other.ID}, m), http.StatusOK)
	assert.Equal(t, other.ID, poc.ClientID)

	var stored models.Submission
	require.NoError(t, e.db.First(&stored, "id = ?", p.submission.ID).Error)
	assert.Nil(t, stored.POCID)
	assert.Equal(t, p.client.ID, stored.ClientID)
}

func TestAssessmentConsultantChangeChecksSubmission(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)
	p := seedPipeline(t, e, m)
	other := expect[models.Consultant](t, e.do(http.MethodPost, "/consultants", gin.H{"name": "Nia"}, m), http.StatusCreated)
	path := "/assessments/" + p.assessment.ID.String()

	w := e.do(http.MethodPatch, path, gin.H{"consultantId": other.ID}, m)
	assert.Equal(t, http.StatusBadRequest, w.Code, "the submission belongs to the previous consultant")
	var stored models.Assessment
	require.NoError(t, e.db.First(&stored, "id = ?", p.assessment.ID).Error)
	assert.Equal(t, p.consultant.ID, stored.ConsultantID)

	got := expect[models.Assessment](t, e.do(http.MethodPatch, path, gin.H{"consultantId": other.ID, "submissionId": uuid.Nil}, m), http.StatusOK)
	assert.Equal(t, other.ID, got.ConsultantID)
	assert.Nil(t, got.SubmissionID)
}

type createdID struct {
	ID uuid.UUID `json:"id"`
}

func TestDeleteThenGet(t *testing.T) {
	e := newEnv(t)
	m := e.user(models.RoleMarketer)
	engineer := e.user(models.RoleUser)
	p := seedPipeline(t, e, m)
	start := time.Now().Add(time.Hour).Truncate(time.Minute)

	create := func(t *testing.T, path string, body gin.H, as *models.User) string {
		t.Helper()
		rec := expect[createdID](t, e.do(http.MethodPost, path, body, as), http.StatusCreated)
		return path + "/" + rec.ID.String()
	}

	cases := []struct {
		name string
		as   *models.User
		path func(t *testing.T) string
	}{
		{"Offer", m, func(t *testing.T) string {
			return create(t, "/offers", gin.H{"userId": engineer.ID, "position": "QA", "value": "10"}, m)
		}},
		{"Timesheet", engineer, func(t *testing.T) string {
			return create(t, "/timesheets", gin.H{"weekStart": rfc3339(time.Now()), "hours": 8}, engineer)
		}},
		{"Meeting", engineer, func(t *testing.T) string {
			return create(t, "/meetings", gin.H{"title": "Sync", "startTime": rfc3339(start), "endTime": rfc3339(start.Add(time.Hour))}, engineer)
		}},
		{"Call", engineer, func(t *testing.T) string {
			return create(t, "/calls", gin.H{"contactName": "Jo"}, engineer)
		}},
		{"Assessment", m, func(*testing.T) string { return "/assessments/" + p.assessment.ID.String() }},
		{"Submission", m, func(*testing.T) string { return "/submissions/" + p.submission.ID.String() }},
		{"Client", m, func(t *testing.T) string { return create(t, "/clients", gin.H{"name": "Initech"}, m) }},
		{"Vendor", m, func(t *testing.T) string { return create(t, "/vendors", gin.H{"name": "Globex"}, m) }},
		{"IP", m, func(t *testing.T) string { return create(t, "/ips", gin.H{"name": "Hooli"}, m) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := tc.path(t)
			require.Equal(t, http.StatusOK, e.do(http.MethodGet, path, nil, tc.as).Code)
			w := e.do(http.MethodDelete, path, nil, tc.as)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, path, nil, tc.as).Code)
			assert.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, path, nil, tc.as).Code)
		})
	}
}
