package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"elevatr/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func getApplicationRequest(handler *ApplicationsHandler, requesterID, applicationID primitive.ObjectID) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/applications/"+applicationID.Hex(), nil)
	c.Params = gin.Params{{Key: "id", Value: applicationID.Hex()}}
	c.Set("user_id", requesterID.Hex())
	handler.GetApplication(c)
	return w
}

func applicationDoc(id, applicantID, recruiterID primitive.ObjectID, status string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "job_id", Value: primitive.NewObjectID()},
		{Key: "applicant_id", Value: applicantID},
		{Key: "recruiter_id", Value: recruiterID},
		{Key: "status", Value: status},
		{Key: "status_history", Value: bson.A{}},
	}
}

func TestGetApplication(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("recruiter first view moves applied to viewed", func(mt *mtest.T) {
		handler := NewApplicationsHandler(mt.Coll, mt.Coll, mt.Coll, nil)

		applicationID := primitive.NewObjectID()
		applicantID := primitive.NewObjectID()
		recruiterID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "elevatr.applications", mtest.FirstBatch,
				applicationDoc(applicationID, applicantID, recruiterID, models.ApplicationStatusApplied)),
			mtest.CreateSuccessResponse(),
		)

		w := getApplicationRequest(handler, recruiterID, applicationID)

		require.Equal(mt, http.StatusOK, w.Code)
		var body struct {
			Application models.Application `json:"application"`
		}
		require.NoError(mt, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(mt, models.ApplicationStatusViewed, body.Application.Status)
		require.Len(mt, body.Application.StatusHistory, 1)
		assert.Equal(mt, models.ApplicationStatusViewed, body.Application.StatusHistory[0].Status)
		assert.Equal(mt, recruiterID, body.Application.StatusHistory[0].ChangedBy)
	})

	mt.Run("applicant view leaves status untouched", func(mt *mtest.T) {
		handler := NewApplicationsHandler(mt.Coll, mt.Coll, mt.Coll, nil)

		applicationID := primitive.NewObjectID()
		applicantID := primitive.NewObjectID()
		recruiterID := primitive.NewObjectID()

		// No update response queued: the read path must not issue one
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, "elevatr.applications", mtest.FirstBatch,
				applicationDoc(applicationID, applicantID, recruiterID, models.ApplicationStatusApplied)),
		)

		w := getApplicationRequest(handler, applicantID, applicationID)

		require.Equal(mt, http.StatusOK, w.Code)
		assert.Contains(mt, w.Body.String(), `"status":"applied"`)
	})

	mt.Run("recruiter reopening a viewed application changes nothing", func(mt *mtest.T) {
		handler := NewApplicationsHandler(mt.Coll, mt.Coll, mt.Coll, nil)

		applicationID := primitive.NewObjectID()
		applicantID := primitive.NewObjectID()
		recruiterID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, "elevatr.applications", mtest.FirstBatch,
				applicationDoc(applicationID, applicantID, recruiterID, models.ApplicationStatusShortlisted)),
		)

		w := getApplicationRequest(handler, recruiterID, applicationID)

		require.Equal(mt, http.StatusOK, w.Code)
		assert.Contains(mt, w.Body.String(), `"status":"shortlisted"`)
	})

	mt.Run("stranger gets not found", func(mt *mtest.T) {
		handler := NewApplicationsHandler(mt.Coll, mt.Coll, mt.Coll, nil)

		applicationID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "elevatr.applications", mtest.FirstBatch),
		)

		w := getApplicationRequest(handler, primitive.NewObjectID(), applicationID)

		assert.Equal(mt, http.StatusNotFound, w.Code)
	})
}
