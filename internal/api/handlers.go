package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"MatchingPool/internal/ledger"
	"MatchingPool/internal/model"
	"MatchingPool/internal/notifier"
	"MatchingPool/internal/pool"
)

// caller extracts the principal from the X-Caller header. An empty
// header aborts the request.
func (s *Server) caller(c *gin.Context) (model.Principal, bool) {
	v := c.GetHeader("X-Caller")
	if v == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "X-Caller header required",
		})
		return "", false
	}
	return model.Principal(v), true
}

func campaignID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid campaign id",
		})
		return 0, false
	}
	return id, true
}

// fail renders a rejected transition. Taxonomy errors keep their
// contract code in the payload.
func fail(c *gin.Context, err error) {
	var perr *pool.Error
	if !errors.As(err, &perr) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	status := http.StatusBadRequest
	switch {
	case errors.Is(perr, pool.ErrNotAuthorized),
		errors.Is(perr, pool.ErrAuthorityNotSet),
		errors.Is(perr, pool.ErrSelfBinding),
		errors.Is(perr, pool.ErrAlreadyBound):
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   perr.Msg,
		"code":    perr.Code,
	})
}

// failLookup is fail with not-found semantics for unknown campaign ids.
func failLookup(c *gin.Context, err error) {
	if errors.Is(err, pool.ErrInvalidCampaign) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "campaign not found",
			"code":    pool.ErrInvalidCampaign.Code,
		})
		return
	}
	fail(c, err)
}

func (s *Server) handleBindAuthority(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	var req struct {
		Candidate string `json:"candidate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	if err := s.pool.BindAuthority(caller, model.Principal(req.Candidate), s.nextSeq()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleSetAdminFee(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	var req struct {
		Fee int64 `json:"fee"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	seq := s.nextSeq()
	if err := s.pool.SetAdminFee(caller, req.Fee, seq); err != nil {
		fail(c, err)
		return
	}
	s.recordParams(caller, seq)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleUpdateRatio(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	var req struct {
		Ratio int64 `json:"ratio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	seq := s.nextSeq()
	if err := s.pool.UpdateMatchingRatio(caller, req.Ratio, seq); err != nil {
		fail(c, err)
		return
	}
	s.recordParams(caller, seq)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleUpdateCap(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	var req struct {
		Cap int64 `json:"cap"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	seq := s.nextSeq()
	if err := s.pool.UpdateMatchingCap(caller, req.Cap, seq); err != nil {
		fail(c, err)
		return
	}
	s.recordParams(caller, seq)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleFund(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	seq := s.nextSeq()
	intent, err := s.pool.Fund(caller, req.Amount, seq)
	if err != nil {
		fail(c, err)
		return
	}
	s.recordIntent(intent, seq)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"intent_id":    intent.ID,
		"pool_balance": s.pool.Snapshot().PoolBalance,
	})
}

func (s *Server) handleWithdraw(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	seq := s.nextSeq()
	intent, err := s.pool.Withdraw(caller, req.Amount, seq)
	if err != nil {
		fail(c, err)
		return
	}
	s.recordIntent(intent, seq)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"intent_id":    intent.ID,
		"pool_balance": s.pool.Snapshot().PoolBalance,
	})
}

type registerRequest struct {
	Name       string `json:"name"`
	PoolType   string `json:"pool_type"`
	Interest   int64  `json:"interest"`
	Grace      int64  `json:"grace"`
	Location   string `json:"location"`
	Currency   string `json:"currency"`
	MinDeposit int64  `json:"min_deposit"`
	MaxDeposit int64  `json:"max_deposit"`
}

func (s *Server) handleRegisterCampaign(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	seq := s.nextSeq()
	id, intent, err := s.pool.RegisterCampaign(caller, pool.CampaignParams{
		Name:       req.Name,
		PoolType:   model.PoolType(req.PoolType),
		Interest:   req.Interest,
		Grace:      req.Grace,
		Location:   req.Location,
		Currency:   model.Currency(req.Currency),
		MinDeposit: req.MinDeposit,
		MaxDeposit: req.MaxDeposit,
	}, seq)
	if err != nil {
		fail(c, err)
		return
	}

	s.recordIntent(intent, seq)
	if err := s.ledger.RecordCampaign(&ledger.CampaignEvent{
		CampaignID: id,
		Name:       req.Name,
		Creator:    caller,
		PoolType:   model.PoolType(req.PoolType),
		Currency:   model.Currency(req.Currency),
		Location:   req.Location,
		MinDeposit: req.MinDeposit,
		MaxDeposit: req.MaxDeposit,
		AdminFee:   intent.Amount,
		Seq:        seq,
	}); err != nil {
		log.Printf("[ERROR] record campaign event: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (s *Server) handleMatchDonation(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	id, ok := campaignID(c)
	if !ok {
		return
	}
	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	seq := s.nextSeq()
	res, err := s.pool.MatchDonation(caller, id, req.Amount, seq)
	if err != nil {
		failLookup(c, err)
		return
	}

	s.recordIntent(res.Intent, seq)
	if err := s.ledger.RecordMatch(&ledger.MatchEvent{
		CampaignID:     id,
		Caller:         caller,
		DonationAmount: req.Amount,
		MatchAmount:    res.MatchAmount,
		Ratio:          res.Ratio,
		PoolBefore:     res.PoolBefore,
		PoolAfter:      res.PoolAfter,
		TotalMatched:   res.TotalMatched,
		Seq:            seq,
	}); err != nil {
		log.Printf("[ERROR] record match event: %v", err)
	}
	s.announceMatch(id, req.Amount, res.MatchAmount, res.PoolAfter)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"match_amount": res.MatchAmount,
		"intent_id":    res.Intent.ID,
	})
}

func (s *Server) handleDeactivate(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	id, ok := campaignID(c)
	if !ok {
		return
	}

	if err := s.pool.DeactivateCampaign(caller, id, s.nextSeq()); err != nil {
		failLookup(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handlePoolStatus(c *gin.Context) {
	state := s.pool.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"pool_balance":     state.PoolBalance,
		"total_matched":    state.TotalMatched,
		"campaign_count":   state.NextPoolID,
		"max_pools":        state.MaxPools,
		"admin_fee":        state.AdminFee,
		"matching_ratio":   state.MatchingRatio,
		"max_matching_cap": state.MaxMatchingCap,
		"authority":        string(state.Authority),
		"updates":          state.Updates,
	})
}

func (s *Server) handlePoolCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "count": s.pool.PoolCount()})
}

func (s *Server) handleCampaignExists(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "name parameter required",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "exists": s.pool.CampaignExists(name)})
}

func (s *Server) handleCampaign(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	campaign, found := s.pool.Campaign(id)
	if !found {
		failLookup(c, pool.ErrInvalidCampaign)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": campaign})
}

func (s *Server) recordIntent(intent *model.TransferIntent, seq int64) {
	if intent == nil {
		return
	}
	if err := s.ledger.RecordIntent(&ledger.IntentRecord{Intent: *intent, Seq: seq}); err != nil {
		log.Printf("[ERROR] record transfer intent: %v", err)
	}
}

func (s *Server) recordParams(updater model.Principal, seq int64) {
	state := s.pool.Snapshot()
	if err := s.ledger.RecordParamUpdate(&ledger.ParamEvent{
		Ratio:    state.MatchingRatio,
		Cap:      state.MaxMatchingCap,
		AdminFee: state.AdminFee,
		Updater:  updater,
		Seq:      seq,
	}); err != nil {
		log.Printf("[ERROR] record param update: %v", err)
	}
}

func (s *Server) announceMatch(id, donation, matchAmount, poolBalance int64) {
	if s.notifier == nil {
		return
	}
	campaign, ok := s.pool.Campaign(id)
	if !ok {
		return
	}
	go func() {
		msg := notifier.FormatMatchReport(&campaign, donation, matchAmount, poolBalance)
		if err := s.notifier.SendWithRetry(context.Background(), msg, 3); err != nil {
			log.Printf("[ERROR] announce match: %v", err)
		}
	}()
}
