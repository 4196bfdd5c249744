package httpapi

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ersonp/kin-core/internal/application/handlers"
	"github.com/ersonp/kin-core/internal/domain/entities"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind decodes the JSON body into req and validates its tags.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		bindError(c, err)
		return false
	}
	if err := validate.Struct(req); err != nil {
		bindError(c, err)
		return false
	}
	return true
}

// CreateRelationshipRequest is the body of POST /relationships.
// Members are IDs, or names when Family is set.
type CreateRelationshipRequest struct {
	Family  string `json:"family"`
	Primary string `json:"primary" validate:"required"`
	Kind    string `json:"kind" validate:"required"`
	Related string `json:"related" validate:"required"`
	Notes   string `json:"notes" validate:"max=500"`
}

// UpdateRelationshipRequest is the body of PUT /relationships/:id.
// Omitted fields keep their current value.
type UpdateRelationshipRequest struct {
	Kind  string  `json:"kind"`
	Notes *string `json:"notes" validate:"omitnil,max=500"`
}

func (a *API) listKinds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"kinds": a.relationships.HandleKinds()})
}

func (a *API) listRelationships(c *gin.Context) {
	result, err := a.relationships.HandleList(c.Request.Context(), handlers.ListOptions{
		Family: c.Query("family"),
		Member: c.Query("member"),
		Kind:   c.Query("kind"),
	})
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *API) createRelationship(c *gin.Context) {
	var req CreateRelationshipRequest
	if !bind(c, &req) {
		return
	}

	result, err := a.relationships.HandleCreate(c.Request.Context(), handlers.CreateInput{
		Family:  req.Family,
		Primary: req.Primary,
		Kind:    req.Kind,
		Related: req.Related,
		Notes:   req.Notes,
	})
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (a *API) getRelationship(c *gin.Context) {
	rel, err := a.relationships.HandleGet(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}

func (a *API) updateRelationship(c *gin.Context) {
	var req UpdateRelationshipRequest
	if !bind(c, &req) {
		return
	}

	result, err := a.relationships.HandleUpdate(c.Request.Context(), c.Param("id"), handlers.UpdateInput{
		Kind:  req.Kind,
		Notes: req.Notes,
	})
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *API) deleteRelationship(c *gin.Context) {
	deleted, err := a.relationships.HandleDelete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (a *API) relationshipHistory(c *gin.Context) {
	history, err := a.relationships.HandleHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	if history == nil {
		history = []entities.AuditEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (a *API) familyRelationships(c *gin.Context) {
	result, err := a.relationships.HandleList(c.Request.Context(), handlers.ListOptions{
		Family: c.Param("family"),
		Kind:   c.Query("kind"),
	})
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *API) memberRelationships(c *gin.Context) {
	result, err := a.relationships.HandleList(c.Request.Context(), handlers.ListOptions{
		Member: c.Param("id"),
		Kind:   c.Query("kind"),
	})
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *API) memberTree(c *gin.Context) {
	tree, err := a.relationships.HandleTree(c.Request.Context(), "", c.Param("id"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (a *API) relatedExists(c *gin.Context) {
	exists, err := a.relationships.HandleExists(c.Request.Context(), "", c.Param("id"), c.Param("other"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}
