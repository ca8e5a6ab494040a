package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	quotedomain "github.com/smallbiznis/cotiza/internal/quote/domain"
	"github.com/smallbiznis/cotiza/pkg/db/pagination"
)

func (s *Server) CreateQuote(c *gin.Context) {
	var req quotedomain.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	quote, err := s.quoteSvc.CreateDraft(c.Request.Context(), quoteActor(currentUser(c)), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": quote})
}

type quoteListQuery struct {
	View string `form:"view"`
	pagination.Pagination
}

// ListQuotes serves the three quote views: drafts (default), sent, and
// the caller's own quotes across both states.
func (s *Server) ListQuotes(c *gin.Context) {
	var query quoteListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor := quoteActor(currentUser(c))
	ctx := c.Request.Context()

	var (
		quotes []quotedomain.Quote
		page   *pagination.PageInfo
		err    error
	)
	switch strings.ToLower(strings.TrimSpace(query.View)) {
	case "", "drafts":
		quotes, page, err = s.quoteSvc.ListDrafts(ctx, actor, query.Pagination)
	case "sent":
		quotes, page, err = s.quoteSvc.ListSent(ctx, actor, query.Pagination)
	case "mine":
		quotes, page, err = s.quoteSvc.ListMine(ctx, actor, query.Pagination)
	default:
		AbortWithError(c, invalidRequestError())
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": quotes, "page_info": page})
}

func (s *Server) GetQuote(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	detail, err := s.quoteSvc.Get(c.Request.Context(), quoteActor(currentUser(c)), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

type addQuoteItemsRequest struct {
	Items []quotedomain.AddItemInput `json:"items"`
}

func (s *Server) AddQuoteItems(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req addQuoteItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Items) == 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	detail, err := s.quoteSvc.AddItems(c.Request.Context(), quoteActor(currentUser(c)), id, req.Items)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) UpdateQuoteItem(c *gin.Context) {
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

	var edit quotedomain.ItemEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	detail, err := s.quoteSvc.UpdateItem(c.Request.Context(), quoteActor(currentUser(c)), id, itemID, edit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) RemoveQuoteItem(c *gin.Context) {
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

	detail, err := s.quoteSvc.RemoveItem(c.Request.Context(), quoteActor(currentUser(c)), id, itemID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) ApplyQuoteBatch(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req quotedomain.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.quoteSvc.ApplyBatch(c.Request.Context(), quoteActor(currentUser(c)), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) SendQuote(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	detail, err := s.quoteSvc.Send(c.Request.Context(), quoteActor(currentUser(c)), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) RetryQuoteDocuments(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	detail, err := s.quoteSvc.RetryDocuments(c.Request.Context(), quoteActor(currentUser(c)), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) ReopenQuote(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	detail, err := s.quoteSvc.Reopen(c.Request.Context(), quoteActor(currentUser(c)), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

type resolveQuoteRequest struct {
	Status string `json:"status"`
}

func (s *Server) ResolveQuote(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req resolveQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var status quotedomain.Status
	switch strings.ToLower(strings.TrimSpace(req.Status)) {
	case string(quotedomain.StatusApproved):
		status = quotedomain.StatusApproved
	case string(quotedomain.StatusRejected):
		status = quotedomain.StatusRejected
	default:
		AbortWithError(c, quotedomain.ErrInvalidStatus)
		return
	}

	detail, err := s.quoteSvc.Resolve(c.Request.Context(), quoteActor(currentUser(c)), id, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) DeleteQuote(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.quoteSvc.Delete(c.Request.Context(), quoteActor(currentUser(c)), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ListQuoteDocuments(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	documents, err := s.quoteSvc.Documents(c.Request.Context(), quoteActor(currentUser(c)), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": documents})
}

func (s *Server) DownloadQuoteDocument(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	docID, err := parseID(c.Param("docId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	documents, err := s.quoteSvc.Documents(c.Request.Context(), quoteActor(currentUser(c)), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	for _, doc := range documents {
		if doc.ID != docID {
			continue
		}
		blob, err := s.blobs.Get(c.Request.Context(), doc.BlobID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+blob.Filename+`"`)
		c.Data(http.StatusOK, blob.ContentType, blob.Data)
		return
	}
	AbortWithError(c, ErrNotFound)
}
