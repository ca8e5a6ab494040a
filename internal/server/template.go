package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	storagedomain "github.com/smallbiznis/cotiza/internal/storage/domain"
	templatedomain "github.com/smallbiznis/cotiza/internal/template/domain"
)

const maxLogoBytes = 2 << 20

func (s *Server) CreateTemplate(c *gin.Context) {
	var req templatedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	template, err := s.templateSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": template})
}

func (s *Server) ListTemplates(c *gin.Context) {
	templates, err := s.templateSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": templates})
}

func (s *Server) GetTemplate(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	template, err := s.templateSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": template})
}

func (s *Server) UpdateTemplate(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req templatedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	template, err := s.templateSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": template})
}

func (s *Server) DeleteTemplate(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.templateSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UploadTemplateLogo stores the file as a blob and links it to the
// template; the previous logo blob stays addressable by rendered
// documents that referenced it.
func (s *Server) UploadTemplateLogo(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if header.Size > maxLogoBytes {
		AbortWithError(c, storagedomain.ErrBlobTooLarge)
		return
	}

	file, err := header.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxLogoBytes+1))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if len(data) > maxLogoBytes {
		AbortWithError(c, storagedomain.ErrBlobTooLarge)
		return
	}

	blob, err := s.blobs.Put(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	template, err := s.templateSvc.SetLogo(c.Request.Context(), id, blob.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": template})
}

func (s *Server) DownloadTemplateLogo(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	template, err := s.templateSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if template.LogoBlobID == nil {
		AbortWithError(c, storagedomain.ErrBlobNotFound)
		return
	}

	blob, err := s.blobs.Get(c.Request.Context(), *template.LogoBlobID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+blob.Filename+`"`)
	c.Data(http.StatusOK, blob.ContentType, blob.Data)
}
