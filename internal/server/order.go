package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/cotiza/internal/order/domain"
	storagedomain "github.com/smallbiznis/cotiza/internal/storage/domain"
	"github.com/smallbiznis/cotiza/pkg/db/pagination"
)

const maxEvidenceBytes = 10 << 20

func (s *Server) CreateOrder(c *gin.Context) {
	var req orderdomain.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	order, err := s.orderSvc.CreateDraft(c.Request.Context(), orderActor(currentUser(c)), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

type orderListQuery struct {
	Status string `form:"status"`
	Mine   string `form:"mine"`
	pagination.Pagination
}

func (s *Server) ListOrders(c *gin.Context) {
	var query orderListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor := orderActor(currentUser(c))
	ctx := c.Request.Context()

	mine, err := parseOptionalBool(query.Mine)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var (
		orders []orderdomain.Order
		page   *pagination.PageInfo
	)
	if mine != nil && *mine {
		orders, page, err = s.orderSvc.ListMine(ctx, actor, query.Pagination)
	} else {
		orders, page, err = s.orderSvc.List(ctx, actor, orderdomain.Status(strings.TrimSpace(query.Status)), query.Pagination)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders, "page_info": page})
}

func (s *Server) GetOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	detail, err := s.orderSvc.Get(c.Request.Context(), orderActor(currentUser(c)), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) AddOrderItem(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var input orderdomain.AddItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	detail, err := s.orderSvc.AddItem(c.Request.Context(), orderActor(currentUser(c)), id, input)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) UpdateOrderItem(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	itemID, err := parseID(c.Param("itemId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var edit orderdomain.ItemEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	detail, err := s.orderSvc.UpdateItem(c.Request.Context(), orderActor(currentUser(c)), id, itemID, edit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) RemoveOrderItem(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	itemID, err := parseID(c.Param("itemId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	detail, err := s.orderSvc.RemoveItem(c.Request.Context(), orderActor(currentUser(c)), id, itemID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) UploadOrderEvidence(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	itemID, err := parseID(c.Param("itemId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if header.Size > maxEvidenceBytes {
		AbortWithError(c, storagedomain.ErrBlobTooLarge)
		return
	}

	file, err := header.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxEvidenceBytes+1))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if len(data) > maxEvidenceBytes {
		AbortWithError(c, storagedomain.ErrBlobTooLarge)
		return
	}

	item, err := s.orderSvc.AttachEvidence(
		c.Request.Context(), orderActor(currentUser(c)), id, itemID,
		header.Filename, header.Header.Get("Content-Type"), data,
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DownloadOrderEvidence(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	itemID, err := parseID(c.Param("itemId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	blob, err := s.orderSvc.Evidence(c.Request.Context(), orderActor(currentUser(c)), id, itemID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+blob.Filename+`"`)
	c.Data(http.StatusOK, blob.ContentType, blob.Data)
}

func (s *Server) SendOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	detail, err := s.orderSvc.Send(c.Request.Context(), orderActor(currentUser(c)), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) ResolveOrderItem(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	itemID, err := parseID(c.Param("itemId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req orderdomain.ResolveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	detail, err := s.orderSvc.ResolveItem(c.Request.Context(), orderActor(currentUser(c)), id, itemID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) DeleteOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.orderSvc.Delete(c.Request.Context(), orderActor(currentUser(c)), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
