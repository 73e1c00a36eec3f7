package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"runnerDispatch/internal/auth"
	"runnerDispatch/internal/lifecycle"
	"runnerDispatch/internal/orders"
)

type loginRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// login issues a runner token. Vetting/onboarding is out of frame: an unknown
// name simply gets a fresh runner row.
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	runner, err := s.runners.GetByName(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable, try again"})
		return
	}
	if runner == nil {
		runner, err = s.runners.Create(c.Request.Context(), req.Name, req.Phone, req.Email)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable, try again"})
			return
		}
	}
	token, err := auth.IssueToken(s.cfg.Auth.JWTSecret, runner.ID, runner.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "runner": runner})
}

func (s *Server) session(c *gin.Context) *auth.Session {
	sess, ok := auth.SessionFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return nil
	}
	return sess
}

func orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return 0, false
	}
	return id, true
}

// listOrders serves GET /api/orders?view=available|active|completed.
func (s *Server) listOrders(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}
	view, err := orders.ParseView(c.DefaultQuery("view", string(orders.ViewAvailable)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := s.fetcher.Fetch(c.Request.Context(), sess, view)
	if err != nil {
		var fe *orders.FetchError
		if errors.As(err, &fe) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": fe.Error(), "retryable": true})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable, try again", "retryable": true})
		return
	}
	if list == nil {
		list = []orders.Detail{}
	}
	c.JSON(http.StatusOK, gin.H{"view": view, "count": len(list), "orders": list})
}

func (s *Server) getOrder(c *gin.Context) {
	if s.session(c) == nil {
		return
	}
	id, ok := orderID(c)
	if !ok {
		return
	}
	d, err := s.fetcher.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable, try again", "retryable": true})
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": d})
}

// rejectionStatus maps a business-rule rejection to an HTTP status. These are
// expected outcomes with exact messages, never 500s.
func rejectionStatus(r *lifecycle.Rejection) int {
	switch r.Reason {
	case lifecycle.ReasonAlreadyAssigned:
		return http.StatusConflict
	case lifecycle.ReasonNotAssigned:
		return http.StatusForbidden
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) respondTransition(c *gin.Context, ord any, err error) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"order": ord})
		return
	}
	if r, ok := lifecycle.AsRejection(err); ok {
		c.JSON(rejectionStatus(r), gin.H{"error": r.Message, "reason": string(r.Reason)})
		return
	}
	if errors.Is(err, lifecycle.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable, try again", "retryable": true})
}

func (s *Server) acceptOrder(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}
	id, ok := orderID(c)
	if !ok {
		return
	}
	ord, err := s.control.Accept(c.Request.Context(), sess, id)
	s.respondTransition(c, ord, err)
}

func (s *Server) verifyCollection(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}
	id, ok := orderID(c)
	if !ok {
		return
	}
	ord, err := s.control.VerifyCollection(c.Request.Context(), sess, id)
	s.respondTransition(c, ord, err)
}

func (s *Server) markInTransit(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}
	id, ok := orderID(c)
	if !ok {
		return
	}
	ord, err := s.control.MarkInTransit(c.Request.Context(), sess, id)
	s.respondTransition(c, ord, err)
}

type deliverRequest struct {
	Pin string `json:"pin" binding:"required,pin"`
}

func (s *Server) verifyDeliveryPin(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req deliverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pin is required (4-8 digits)"})
		return
	}
	ord, err := s.control.VerifyDeliveryPin(c.Request.Context(), sess, id, req.Pin)
	s.respondTransition(c, ord, err)
}

func (s *Server) listEarnings(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}
	rows, err := s.earnings.ListByRunner(c.Request.Context(), sess.RunnerID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable, try again", "retryable": true})
		return
	}
	total, err := s.earnings.TotalForRunner(c.Request.Context(), sess.RunnerID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable, try again", "retryable": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(rows), "total": total, "earnings": rows})
}
