package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/kin-core/internal/application/handlers"
	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/services"
)

// NameRequest is the body of the family and member create endpoints.
type NameRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (a *API) listFamilies(c *gin.Context) {
	families, err := a.members.HandleListFamilies(c.Request.Context())
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"families": families})
}

func (a *API) createFamily(c *gin.Context) {
	var req NameRequest
	if !bind(c, &req) {
		return
	}
	family, err := a.members.HandleAddFamily(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusCreated, family)
}

func (a *API) listMembers(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, a.logger, err)
		return
	}

	if q := c.Query("q"); q != "" {
		members, err := a.members.HandleSearch(c.Request.Context(), c.Param("family"), q, limit)
		if err != nil {
			writeError(c, a.logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"members": members})
		return
	}

	offset, err := queryInt(c, "offset")
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	result, err := a.members.HandleList(c.Request.Context(), c.Param("family"), limit, offset)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *API) addMember(c *gin.Context) {
	var req NameRequest
	if !bind(c, &req) {
		return
	}
	member, err := a.members.HandleAddMember(c.Request.Context(), c.Param("family"), req.Name)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (a *API) getMember(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, a.logger, invalidParam("member id", c.Param("id")))
		return
	}
	member, err := a.members.HandleGetMember(c.Request.Context(), id)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// importFixture imports a fixture sent as the request body.
func (a *API) importFixture(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	dryRun, err := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))
	if err != nil {
		writeError(c, a.logger, invalidParam("dry_run", c.Query("dry_run")))
		return
	}

	result, err := a.importer.HandleReader(c.Request.Context(), c.Request.Body, handlers.ImportOptions{
		Format:       format,
		DryRun:       dryRun,
		ActingUserID: services.ActingUser(c.Request.Context()),
	})
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam(name, raw)
	}
	return n, nil
}

func invalidParam(name, value string) error {
	return &paramError{name: name, value: value}
}

type paramError struct {
	name, value string
}

func (e *paramError) Error() string {
	return "invalid " + e.name + ": " + strconv.Quote(e.value)
}

func (e *paramError) Unwrap() error { return entities.ErrInvalidInput }
