package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/service"
)

type createConversationRequest struct {
	Title         string `json:"title"`
	AIPersonality string `json:"aiPersonality"`
	CustomPrompt  string `json:"customPrompt"`
}

type addMessageRequest struct {
	Role     domain.Role `json:"role"`
	Content  string      `json:"content"`
	Metadata string      `json:"metadata"`
}

func (s *Server) listConversations(c *gin.Context) {
	convs, err := s.deps.Conversations.List(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err, "")
		return
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (s *Server) createConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	conv, err := s.deps.Conversations.Create(c.Request.Context(), service.CreateConversationInput{
		UserID:        userID(c),
		Title:         req.Title,
		AIPersonality: req.AIPersonality,
		CustomPrompt:  req.CustomPrompt,
	})
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (s *Server) getConversation(c *gin.Context) {
	conv, err := s.deps.Conversations.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) updateConversation(c *gin.Context) {
	var upd domain.ConversationUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	conv, err := s.deps.Conversations.Update(c.Request.Context(), userID(c), c.Param("id"), upd)
	if err != nil {
		s.fail(c, err, "Conversation not found or access denied")
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) deleteConversation(c *gin.Context) {
	if err := s.deps.Conversations.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		s.fail(c, err, "Conversation not found or access denied")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) deleteAllConversations(c *gin.Context) {
	n, err := s.deps.Conversations.DeleteAll(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (s *Server) listMessages(c *gin.Context) {
	msgs, err := s.deps.Conversations.Messages(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err, "")
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (s *Server) addMessage(c *gin.Context) {
	var req addMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Role == "" || req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role and content are required"})
		return
	}

	msg := &domain.Message{
		ConversationID: c.Param("id"),
		Role:           req.Role,
		Content:        req.Content,
		Metadata:       req.Metadata,
	}
	if err := s.deps.Conversations.AddMessage(c.Request.Context(), userID(c), msg); err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, msg)
}
