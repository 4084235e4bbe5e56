package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func projectDoc(id, ownerID primitive.ObjectID, title string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "owner_id", Value: ownerID},
		{Key: "title", Value: title},
		{Key: "tags", Value: bson.A{}},
		{Key: "likes", Value: bson.A{}},
		{Key: "comments", Value: bson.A{}},
	}
}

func updateProjectRequest(handler *ProjectsHandler, userID, projectID primitive.ObjectID, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/api/projects/"+projectID.Hex(), strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: projectID.Hex()}}
	c.Set("user_id", userID.Hex())
	handler.UpdateProject(c)
	return w
}

func TestUpdateProject(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("owner updates title", func(mt *mtest.T) {
		handler := NewProjectsHandler(mt.Coll, mt.Coll, nil)

		projectID := primitive.NewObjectID()
		ownerID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(
				bson.E{Key: "n", Value: 1},
				bson.E{Key: "nModified", Value: 1},
			),
			mtest.CreateCursorResponse(1, "elevatr.projects", mtest.FirstBatch,
				projectDoc(projectID, ownerID, "Renamed")),
		)

		w := updateProjectRequest(handler, ownerID, projectID, `{"title":"Renamed"}`)

		require.Equal(mt, http.StatusOK, w.Code)
		assert.Contains(mt, w.Body.String(), "Renamed")
	})

	mt.Run("non-owner gets not found", func(mt *mtest.T) {
		handler := NewProjectsHandler(mt.Coll, mt.Coll, nil)

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		w := updateProjectRequest(handler, primitive.NewObjectID(), primitive.NewObjectID(), `{"title":"Hijacked"}`)

		assert.Equal(mt, http.StatusNotFound, w.Code)
	})

	mt.Run("empty update rejected", func(mt *mtest.T) {
		handler := NewProjectsHandler(mt.Coll, mt.Coll, nil)

		w := updateProjectRequest(handler, primitive.NewObjectID(), primitive.NewObjectID(), `{}`)

		assert.Equal(mt, http.StatusBadRequest, w.Code)
	})
}

func TestGetMyProjects(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("lists only own projects", func(mt *mtest.T) {
		handler := NewProjectsHandler(mt.Coll, mt.Coll, nil)

		ownerID := primitive.NewObjectID()

		first := mtest.CreateCursorResponse(1, "elevatr.projects", mtest.FirstBatch,
			projectDoc(primitive.NewObjectID(), ownerID, "Portfolio site"))
		second := mtest.CreateCursorResponse(0, "elevatr.projects", mtest.NextBatch,
			projectDoc(primitive.NewObjectID(), ownerID, "Chat app"))
		mt.AddMockResponses(first, second)

		gin.SetMode(gin.TestMode)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/projects/mine", nil)
		c.Set("user_id", ownerID.Hex())
		handler.GetMyProjects(c)

		require.Equal(mt, http.StatusOK, w.Code)
		assert.Contains(mt, w.Body.String(), "Portfolio site")
		assert.Contains(mt, w.Body.String(), "Chat app")
		assert.Contains(mt, w.Body.String(), `"count":2`)
	})
}
