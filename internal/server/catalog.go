package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/cotiza/internal/catalog/domain"
)

type catalogListQuery struct {
	Name       string `form:"name"`
	CategoryID string `form:"category_id"`
	Active     string `form:"active"`
	SortBy     string `form:"sort_by"`
	OrderBy    string `form:"order_by"`
}

func (q catalogListQuery) toRequest() (catalogdomain.ListRequest, error) {
	req := catalogdomain.ListRequest{
		Name:    strings.TrimSpace(q.Name),
		SortBy:  strings.TrimSpace(q.SortBy),
		OrderBy: strings.TrimSpace(q.OrderBy),
	}

	active, err := parseOptionalBool(q.Active)
	if err != nil {
		return req, ErrInvalidRequest
	}
	req.Active = active

	if raw := strings.TrimSpace(q.CategoryID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return req, ErrInvalidRequest
		}
		req.CategoryID = &id
	}
	return req, nil
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req catalogdomain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	product, err := s.catalogSvc.CreateProduct(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (s *Server) ListProducts(c *gin.Context) {
	var query catalogListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req, err := query.toRequest()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	products, err := s.catalogSvc.ListProducts(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

func (s *Server) GetProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	product, err := s.catalogSvc.GetProduct(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (s *Server) UpdateProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req catalogdomain.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	product, err := s.catalogSvc.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (s *Server) DeleteProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.catalogSvc.DeleteProduct(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) CreateService(c *gin.Context) {
	var req catalogdomain.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	service, err := s.catalogSvc.CreateService(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": service})
}

func (s *Server) ListServices(c *gin.Context) {
	var query catalogListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req, err := query.toRequest()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	services, err := s.catalogSvc.ListServices(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": services})
}

func (s *Server) GetService(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	service, err := s.catalogSvc.GetService(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": service})
}

func (s *Server) UpdateService(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req catalogdomain.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	service, err := s.catalogSvc.UpdateService(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": service})
}

func (s *Server) DeleteService(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.catalogSvc.DeleteService(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) CreateCategory(c *gin.Context) {
	var req catalogdomain.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	category, err := s.catalogSvc.CreateCategory(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": category})
}

func (s *Server) ListCategories(c *gin.Context) {
	kind := catalogdomain.Kind("")
	if raw := strings.TrimSpace(c.Query("kind")); raw != "" {
		parsed, ok := catalogdomain.ParseKind(raw)
		if !ok {
			AbortWithError(c, catalogdomain.ErrInvalidKind)
			return
		}
		kind = parsed
	}

	categories, err := s.catalogSvc.ListCategories(c.Request.Context(), kind)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories})
}

type updateCategoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) UpdateCategory(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	category, err := s.catalogSvc.UpdateCategory(c.Request.Context(), id, req.Name)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": category})
}

func (s *Server) DeleteCategory(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.catalogSvc.DeleteCategory(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
