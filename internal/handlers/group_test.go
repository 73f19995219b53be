package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-assignment-api/internal/dto"
	"github.com/yukikurage/task-assignment-api/internal/models"
	"github.com/yukikurage/task-assignment-api/internal/services"
)

// GroupHandlerTestSuite defines the test suite for GroupHandler
type GroupHandlerTestSuite struct {
	handlerSuite

	managerToken string
	employee     *models.User
	colleague    *models.User
}

// SetupTest runs before each test
func (suite *GroupHandlerTestSuite) SetupTest() {
	suite.handlerSuite.SetupTest()
	suite.managerToken = suite.tokenFor(suite.createUser("manager", models.RoleManager))
	suite.employee = suite.createUser("employee", models.RoleEmployee)
	suite.colleague = suite.createUser("colleague", models.RoleEmployee)
}

func groupPath(id uint64) string {
	return fmt.Sprintf("/api/groups/%d", id)
}

func (suite *GroupHandlerTestSuite) createGroup(name string, members ...uint64) dto.GroupDTO {
	w := suite.request(http.MethodPost, "/api/groups", suite.managerToken, map[string]interface{}{
		"name":    name,
		"members": members,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var group dto.GroupDTO
	suite.decode(w, &group)
	return group
}

func (suite *GroupHandlerTestSuite) TestCreateAndList() {
	group := suite.createGroup("Warehouse", suite.employee.ID, suite.colleague.ID)
	suite.Equal("Warehouse", group.Name)
	suite.ElementsMatch([]uint64{suite.employee.ID, suite.colleague.ID}, group.Members)

	w := suite.request(http.MethodGet, "/api/groups", suite.managerToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var groups []dto.GroupDTO
	suite.decode(w, &groups)
	suite.Len(groups, 1)

	w = suite.request(http.MethodGet, groupPath(group.ID), suite.managerToken, nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/groups", suite.tokenFor(suite.employee), nil)
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *GroupHandlerTestSuite) TestCreate_Validation() {
	w := suite.request(http.MethodPost, "/api/groups", suite.managerToken, map[string]interface{}{
		"members": []uint64{suite.employee.ID},
	})
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.Contains(suite.decodeError(w).Details, "name")

	w = suite.request(http.MethodPost, "/api/groups", suite.managerToken, map[string]interface{}{
		"name":    "Ghosts",
		"members": []uint64{9999},
	})
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.Contains(suite.decodeError(w).Details, "members")
}

func (suite *GroupHandlerTestSuite) TestUpdate_PutAndPatch() {
	group := suite.createGroup("Warehouse", suite.employee.ID)

	w := suite.request(http.MethodPatch, groupPath(group.ID), suite.managerToken, map[string]interface{}{
		"members": []uint64{suite.colleague.ID},
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated dto.GroupDTO
	suite.decode(w, &updated)
	suite.Equal("Warehouse", updated.Name)
	suite.Equal([]uint64{suite.colleague.ID}, updated.Members)

	w = suite.request(http.MethodPut, groupPath(group.ID), suite.managerToken, map[string]interface{}{
		"members": []uint64{suite.employee.ID},
	})
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.Contains(suite.decodeError(w).Details, "name")

	w = suite.request(http.MethodPut, groupPath(group.ID), suite.managerToken, map[string]interface{}{
		"name": "Dock",
	})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &updated)
	suite.Equal("Dock", updated.Name)
}

func (suite *GroupHandlerTestSuite) TestDelete_ClearsTaskGroup() {
	group := suite.createGroup("Warehouse", suite.colleague.ID)
	task := suite.createTask(suite.managerToken, map[string]interface{}{
		"title": "Inventory",
		"group": group.ID,
	})
	suite.Equal([]uint64{suite.colleague.ID}, task.AssignedTo)

	w := suite.request(http.MethodDelete, groupPath(group.ID), suite.managerToken, nil)
	suite.Require().Equal(http.StatusNoContent, w.Code)

	w = suite.request(http.MethodGet, taskPath(task.ID), suite.managerToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var current dto.TaskDTO
	suite.decode(w, &current)
	suite.Nil(current.Group)
	suite.Equal([]uint64{suite.colleague.ID}, current.AssignedTo)

	w = suite.request(http.MethodDelete, groupPath(group.ID), suite.managerToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *GroupHandlerTestSuite) TestDelete_RejectedWhileOnlyAssignment() {
	group := suite.createGroup("Empty", []uint64{}...)
	task := suite.createTask(suite.managerToken, map[string]interface{}{
		"title": "Orphan",
		"group": group.ID,
	})
	suite.Empty(task.AssignedTo)

	w := suite.request(http.MethodDelete, groupPath(group.ID), suite.managerToken, nil)
	suite.Require().Equal(http.StatusBadRequest, w.Code, w.Body.String())
	suite.Contains(suite.decodeError(w).Details, services.NonFieldErrors)

	w = suite.request(http.MethodGet, taskPath(task.ID), suite.managerToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var current dto.TaskDTO
	suite.decode(w, &current)
	suite.Require().NotNil(current.Group)
	suite.Equal(group.ID, *current.Group)
}

func TestGroupHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(GroupHandlerTestSuite))
}
