package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"talentpass/native/contact"
	"talentpass/native/hiring"
	"talentpass/native/profile"
	"talentpass/native/rewards"
)

type tierPayload struct {
	Price       string `json:"price"`
	Description string `json:"description"`
}

type profilePayload struct {
	Handle            string        `json:"handle"`
	Skills            []string      `json:"skills,omitempty"`
	ExperienceYears   uint16        `json:"experienceYears,omitempty"`
	Region            string        `json:"region,omitempty"`
	Bio               string        `json:"bio,omitempty"`
	Tiers             []tierPayload `json:"tiers"`
	ResponseTimeHours uint16        `json:"responseTimeHours"`
	Public            bool          `json:"public"`
}

type profileView struct {
	ID                string        `json:"id"`
	Owner             string        `json:"owner"`
	Handle            string        `json:"handle"`
	Skills            []string      `json:"skills,omitempty"`
	ExperienceYears   uint16        `json:"experienceYears,omitempty"`
	Region            string        `json:"region,omitempty"`
	Bio               string        `json:"bio,omitempty"`
	Tiers             []tierPayload `json:"tiers"`
	ResponseTimeHours uint16        `json:"responseTimeHours"`
	Public            bool          `json:"public"`
}

func contactTiersFrom(payload []tierPayload) ([]profile.ContactTier, error) {
	tiers := make([]profile.ContactTier, 0, len(payload))
	for _, tier := range payload {
		price, err := parseAmount(tier.Price)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, profile.ContactTier{Price: price, Description: tier.Description})
	}
	return tiers, nil
}

func renderProfile(p *profile.Profile) profileView {
	tiers := make([]tierPayload, 0, len(p.ContactTiers))
	for _, tier := range p.ContactTiers {
		tiers = append(tiers, tierPayload{Price: amountString(tier.Price), Description: tier.Description})
	}
	return profileView{
		ID:                hexHash(p.ID),
		Owner:             hexAddress(p.Owner),
		Handle:            p.Handle,
		Skills:            p.Skills,
		ExperienceYears:   p.ExperienceYears,
		Region:            p.Region,
		Bio:               p.Bio,
		Tiers:             tiers,
		ResponseTimeHours: p.ResponseTimeHours,
		Public:            p.Public,
	}
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var payload profilePayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tiers, err := contactTiersFrom(payload.Tiers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.svc.CreateProfile(caller, &profile.Profile{
		Handle:            payload.Handle,
		Skills:            payload.Skills,
		ExperienceYears:   payload.ExperienceYears,
		Region:            payload.Region,
		Bio:               payload.Bio,
		ContactTiers:      tiers,
		ResponseTimeHours: payload.ResponseTimeHours,
		Public:            payload.Public,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderProfile(created))
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.svc.GetProfile(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderProfile(p))
}

func (s *Server) handleUpdateTiers(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload struct {
		Tiers []tierPayload `json:"tiers"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tiers, err := contactTiersFrom(payload.Tiers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.svc.UpdateProfileTiers(caller, id, tiers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderProfile(p))
}

func (s *Server) handleSetResponseTime(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload struct {
		Hours uint16 `json:"hours"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.svc.SetProfileResponseTime(caller, id, payload.Hours)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderProfile(p))
}

func (s *Server) handleSetVisibility(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload struct {
		Public bool `json:"public"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.svc.SetProfileVisibility(caller, id, payload.Public)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderProfile(p))
}

type contactView struct {
	ID        string `json:"id"`
	Requester string `json:"requester"`
	ProfileID string `json:"profileId"`
	TierIndex uint8  `json:"tierIndex"`
	Token     string `json:"token"`
	Amount    string `json:"amount"`
	Message   string `json:"message,omitempty"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

func renderContact(req *contact.Request) contactView {
	return contactView{
		ID:        hexHash(req.ID),
		Requester: hexAddress(req.Requester),
		ProfileID: hexHash(req.ProfileID),
		TierIndex: req.TierIndex,
		Token:     req.Token,
		Amount:    amountString(req.Amount),
		Message:   req.Message,
		Status:    req.Status.String(),
		CreatedAt: req.CreatedAt,
		ExpiresAt: req.ExpiresAt,
	}
}

func (s *Server) handleSendContact(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var payload struct {
		ProfileID string `json:"profileId"`
		TierIndex uint8  `json:"tierIndex"`
		Message   string `json:"message"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	profileID, err := parseHash(payload.ProfileID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := s.svc.SendContactRequest(caller, profileID, payload.TierIndex, payload.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderContact(req))
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := s.svc.GetContactRequest(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderContact(req))
}

func (s *Server) handleRespondContact(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload struct {
		Accept bool `json:"accept"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := s.svc.RespondToContact(caller, id, payload.Accept)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderContact(req))
}

func (s *Server) handleReclaimContact(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := s.svc.ReclaimExpiredContact(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderContact(req))
}

type poolView struct {
	ID        string        `json:"id"`
	Authority string        `json:"authority"`
	Token     string        `json:"token"`
	Tiers     []tierPayload `json:"tiers"`
	Balance   string        `json:"balance"`
	TotalPaid string        `json:"totalPaid"`
}

func renderPool(pool *rewards.Pool) poolView {
	tiers := make([]tierPayload, 0, len(pool.Tiers))
	for _, tier := range pool.Tiers {
		tiers = append(tiers, tierPayload{Price: amountString(tier.RewardAmount), Description: tier.Description})
	}
	return poolView{
		ID:        hexHash(pool.ID),
		Authority: hexAddress(pool.Authority),
		Token:     pool.Token,
		Tiers:     tiers,
		Balance:   amountString(pool.Balance),
		TotalPaid: amountString(pool.TotalPaid),
	}
}

func (s *Server) handleCreatePool(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var payload struct {
		Token string        `json:"token"`
		Tiers []tierPayload `json:"tiers"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tiers := make([]rewards.Tier, 0, len(payload.Tiers))
	for _, tier := range payload.Tiers {
		amount, err := parseAmount(tier.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		tiers = append(tiers, rewards.Tier{RewardAmount: amount, Description: tier.Description})
	}
	pool, err := s.svc.CreateRewardPool(caller, payload.Token, tiers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderPool(pool))
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pool, err := s.svc.GetRewardPool(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderPool(pool))
}

func (s *Server) handlePoolBalanceChange(w http.ResponseWriter, r *http.Request, withdraw bool) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload struct {
		Amount string `json:"amount"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(payload.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var pool *rewards.Pool
	if withdraw {
		pool, err = s.svc.WithdrawFromPool(caller, id, amount)
	} else {
		pool, err = s.svc.DepositToPool(caller, id, amount)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderPool(pool))
}

func (s *Server) handleDepositPool(w http.ResponseWriter, r *http.Request) {
	s.handlePoolBalanceChange(w, r, false)
}

func (s *Server) handleWithdrawPool(w http.ResponseWriter, r *http.Request) {
	s.handlePoolBalanceChange(w, r, true)
}

type referralView struct {
	ID       string `json:"id"`
	PoolID   string `json:"poolId"`
	Referrer string `json:"referrer"`
	Referee  string `json:"referee"`
	Used     bool   `json:"used"`
}

func renderReferral(ref *rewards.Referral) referralView {
	return referralView{
		ID:       hexHash(ref.ID),
		PoolID:   hexHash(ref.PoolID),
		Referrer: hexAddress(ref.Referrer),
		Referee:  hexAddress(ref.Referee),
		Used:     ref.Used,
	}
}

func (s *Server) handleCreateReferral(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var payload struct {
		PoolID  string `json:"poolId"`
		Referee string `json:"referee"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	poolID, err := parseHash(payload.PoolID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	referee, err := parseAddress(payload.Referee)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	referral, err := s.svc.CreateReferral(caller, poolID, referee)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderReferral(referral))
}

func (s *Server) handleGetReferral(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	referral, err := s.svc.GetReferral(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderReferral(referral))
}

type jobView struct {
	ID               string   `json:"id"`
	Recruiter        string   `json:"recruiter"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	RequiredSkills   []string `json:"requiredSkills,omitempty"`
	SalaryMin        string   `json:"salaryMin,omitempty"`
	SalaryMax        string   `json:"salaryMax,omitempty"`
	Deadline         int64    `json:"deadline"`
	Token            string   `json:"token"`
	Bounty           string   `json:"bounty"`
	PoolID           string   `json:"poolId,omitempty"`
	Active           bool     `json:"active"`
	ApplicationCount uint32   `json:"applicationCount"`
}

func renderJob(job *hiring.Job) jobView {
	view := jobView{
		ID:               hexHash(job.ID),
		Recruiter:        hexAddress(job.Recruiter),
		Title:            job.Title,
		Description:      job.Description,
		RequiredSkills:   job.RequiredSkills,
		Deadline:         job.Deadline,
		Token:            job.Token,
		Bounty:           amountString(job.Bounty),
		Active:           job.Active,
		ApplicationCount: job.ApplicationCount,
	}
	if job.SalaryMin != nil {
		view.SalaryMin = amountString(job.SalaryMin)
	}
	if job.SalaryMax != nil {
		view.SalaryMax = amountString(job.SalaryMax)
	}
	if job.HasPool() {
		view.PoolID = hexHash(job.PoolID)
	}
	return view
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var payload struct {
		Title          string   `json:"title"`
		Description    string   `json:"description"`
		RequiredSkills []string `json:"requiredSkills"`
		SalaryMin      string   `json:"salaryMin"`
		SalaryMax      string   `json:"salaryMax"`
		DeadlineDays   uint16   `json:"deadlineDays"`
		Token          string   `json:"token"`
		PoolID         string   `json:"poolId"`
		Nonce          uint64   `json:"nonce"`
		Bounty         string   `json:"bounty"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	spec := hiring.JobSpec{
		Title:          payload.Title,
		Description:    payload.Description,
		RequiredSkills: payload.RequiredSkills,
		DeadlineDays:   payload.DeadlineDays,
		Token:          payload.Token,
	}
	if payload.SalaryMin != "" {
		if spec.SalaryMin, err = parseAmount(payload.SalaryMin); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if payload.SalaryMax != "" {
		if spec.SalaryMax, err = parseAmount(payload.SalaryMax); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if payload.PoolID != "" {
		if spec.PoolID, err = parseHash(payload.PoolID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	bounty, err := parseAmount(payload.Bounty)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := s.svc.CreateJob(caller, spec, payload.Nonce, bounty)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderJob(job))
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := s.svc.GetJob(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderJob(job))
}

type applicationView struct {
	ID         string `json:"id"`
	JobID      string `json:"jobId"`
	Applicant  string `json:"applicant"`
	Message    string `json:"message,omitempty"`
	ReferralID string `json:"referralId,omitempty"`
	Status     string `json:"status"`
	AppliedAt  int64  `json:"appliedAt"`
}

func renderApplication(application *hiring.Application) applicationView {
	view := applicationView{
		ID:        hexHash(application.ID),
		JobID:     hexHash(application.JobID),
		Applicant: hexAddress(application.Applicant),
		Message:   application.Message,
		Status:    application.Status.String(),
		AppliedAt: application.AppliedAt,
	}
	if application.ReferralID != nil {
		view.ReferralID = hexHash(*application.ReferralID)
	}
	return view
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	jobID, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload struct {
		Message    string `json:"message"`
		ReferralID string `json:"referralId"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var referralID *[32]byte
	if payload.ReferralID != "" {
		id, err := parseHash(payload.ReferralID)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		referralID = &id
	}
	application, err := s.svc.ApplyToJob(caller, jobID, payload.Message, referralID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderApplication(application))
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	application, err := s.svc.GetApplication(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderApplication(application))
}

func (s *Server) handleHire(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload struct {
		TierIndex uint8 `json:"tierIndex"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	application, err := s.svc.HireApplicant(caller, id, payload.TierIndex)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderApplication(application))
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := parseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	application, err := s.svc.RejectApplicant(caller, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderApplication(application))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	balance, err := s.svc.BalanceOf(chi.URLParam(r, "token"), addr)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"token":   chi.URLParam(r, "token"),
		"address": hexAddress(addr),
		"balance": amountString(balance),
	})
}
