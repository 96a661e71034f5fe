// Package engine implements the per-session game state machine shared
// by every wager minigame: session lifecycle, phase transitions, timer
// discipline and the settlement guarantee.
//
// Each session owns one goroutine. Player actions and timer firings
// are enqueued on the session's event channel and processed strictly
// in arrival order, so no two handlers for the same session ever run
// concurrently and no internal locking is needed inside game rules.
// Ledger and render calls happen inside the loop; a timer that fires
// against a session that already moved on is recognized as stale and
// dropped.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Mode selects the session shape.
type Mode int

const (
	// ModeTable is a persistent multi-round multi-player table:
	// seats are retained across rounds and the session lives until
	// it is closed explicitly or by inactivity.
	ModeTable Mode = iota
	// ModeDuel is an ephemeral two-player wager: one round, fixed
	// stake on both sides, session destroyed after the result.
	ModeDuel
)

// Rules is the per-game half of the engine. The session owns joins,
// bets, ready votes, stake debits, settlement, cooldown and close;
// rules own the shared resources (deck, chamber, word) and the move
// legality of their game. All callbacks run inside the session loop.
type Rules interface {
	// Name identifies the game family; it is part of the registry key.
	Name() string
	// Deal initializes shared resources and per-participant state at
	// the start of a round. Participants enter with State Ready; Deal
	// moves those who owe actions to StateActing and may set the
	// opening turn for alternating games.
	Deal(s *Session)
	// Handle applies a single player action while the session is
	// active. The engine has already verified the actor is seated;
	// Handle validates move legality and mutates state.
	Handle(s *Session, act Action) error
	// Done reports whether the round has reached a terminal state.
	Done(s *Session) bool
	// Outcomes computes the settlement for a normally finished round.
	Outcomes(s *Session) []Outcome
	// Forfeit computes the settlement for an abandoned round. idle is
	// the participant whose turn timer expired, or zero when no
	// single side is at fault (move window expiry, forced close).
	Forfeit(s *Session, idle int64) []Outcome
}

// Config describes a session to be opened.
type Config struct {
	ChatID  int64
	Rules   Rules
	Mode    Mode
	Ledger  Ledger
	TaxRate float64

	// Table settings
	MaxBet     int64
	Countdown  time.Duration
	Cooldown   time.Duration
	Inactivity time.Duration
	EmptyClose time.Duration

	// Duel settings
	Stake          int64
	Challenger     int64
	ChallengerName string
	Opponent       int64
	OpponentName   string
	AcceptTimeout  time.Duration
	TurnTimeout    time.Duration
	MoveWindow     time.Duration

	// OnUpdate is invoked inside the session loop after every state
	// change. Implementations may block on transport calls but must
	// not call back into Session.Do.
	OnUpdate func(*Session)
}

type envelope struct {
	act   Action
	reply chan error
}

// opTimeout bounds each ledger call made from inside the loop.
const opTimeout = 10 * time.Second

// Session is a live game session: the only owner of its participants,
// shared resources and timers. All mutation goes through Do.
type Session struct {
	id  uuid.UUID
	cfg Config
	key Key
	reg *Registry

	phase       Phase
	parts       map[int64]*Participant
	order       []int64
	turn        int64
	settled     bool
	closeReason string
	countdownAt time.Time

	timers *timerSet
	events chan envelope
	done   chan struct{}
}

// Open creates a session, registers it under its scope and starts its
// event loop. Fails with ErrSessionOpen when the scope already holds a
// session of the same game family.
func Open(reg *Registry, cfg Config) (*Session, error) {
	s := &Session{
		id:     uuid.New(),
		cfg:    cfg,
		key:    Key{ChatID: cfg.ChatID, Game: cfg.Rules.Name()},
		reg:    reg,
		phase:  PhaseForming,
		parts:  make(map[int64]*Participant),
		timers: newTimerSet(),
		events: make(chan envelope, 64),
		done:   make(chan struct{}),
	}

	if cfg.Mode == ModeDuel {
		s.seat(&Participant{UserID: cfg.Challenger, Name: cfg.ChallengerName, Stake: cfg.Stake, State: StateReady})
		s.seat(&Participant{UserID: cfg.Opponent, Name: cfg.OpponentName, Stake: cfg.Stake, State: StateWaiting})
	}

	if err := reg.acquire(s); err != nil {
		return nil, err
	}

	switch cfg.Mode {
	case ModeTable:
		if cfg.EmptyClose > 0 {
			s.armTimer(TimerEmpty, cfg.EmptyClose)
		}
		if cfg.Inactivity > 0 {
			s.armTimer(TimerInactivity, cfg.Inactivity)
		}
	case ModeDuel:
		if cfg.AcceptTimeout > 0 {
			s.armTimer(TimerAccept, cfg.AcceptTimeout)
		}
	}

	go s.run()

	log.Info().
		Str("session", s.id.String()).
		Int64("chat", cfg.ChatID).
		Str("game", cfg.Rules.Name()).
		Msg("Session opened")

	return s, nil
}

// ID returns the session's unique identity.
func (s *Session) ID() uuid.UUID { return s.id }

// ChatID returns the scope chat.
func (s *Session) ChatID() int64 { return s.cfg.ChatID }

// Key returns the registry key.
func (s *Session) Key() Key { return s.key }

// Game returns the rules implementation driving this session.
func (s *Session) Game() Rules { return s.cfg.Rules }

// Phase returns the current phase. Safe only from within Rules or
// OnUpdate callbacks, which run inside the loop.
func (s *Session) Phase() Phase { return s.phase }

// CloseReason returns the reason recorded when the session closed.
func (s *Session) CloseReason() string { return s.closeReason }

// TaxRate returns the configured house tax.
func (s *Session) TaxRate() float64 { return s.cfg.TaxRate }

// Stake returns the fixed duel stake.
func (s *Session) Stake() int64 { return s.cfg.Stake }

// Challenger returns the duel initiator's user id.
func (s *Session) Challenger() int64 { return s.cfg.Challenger }

// Opponent returns the challenged user's id.
func (s *Session) Opponent() int64 { return s.cfg.Opponent }

// Turn returns the user whose turn it is (alternating games), or zero.
func (s *Session) Turn() int64 { return s.turn }

// SetTurn hands the turn to userID; zero clears it. Called by rules.
func (s *Session) SetTurn(userID int64) { s.turn = userID }

// CountdownEndsAt returns when the ready countdown elapses, zero when
// no countdown is armed.
func (s *Session) CountdownEndsAt() time.Time { return s.countdownAt }

// Participant returns the seated participant with userID, or nil.
func (s *Session) Participant(userID int64) *Participant {
	return s.parts[userID]
}

// Participants returns the seated participants in seating order.
func (s *Session) Participants() []*Participant {
	out := make([]*Participant, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.parts[id])
	}
	return out
}

// Other returns the duel counterpart of userID.
func (s *Session) Other(userID int64) *Participant {
	for _, p := range s.parts {
		if p.UserID != userID {
			return p
		}
	}
	return nil
}

// Do submits an action and waits for its result. The returned error is
// the private validation failure to report to the actor; nil means the
// action was applied. Returns ErrSessionClosed once the session is
// gone.
func (s *Session) Do(ctx context.Context, act Action) error {
	ev := envelope{act: act, reply: make(chan error, 1)}

	select {
	case s.events <- ev:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-ev.reply:
		return err
	case <-s.done:
		// The loop may have answered just before closing.
		select {
		case err := <-ev.reply:
			return err
		default:
			return ErrSessionClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown closes the session and blocks until it has settled any open
// round and detached from the registry.
func (s *Session) Shutdown(reason string) {
	_ = s.Do(context.Background(), Action{Kind: ActionClose, Payload: reason})
	<-s.done
}

// Done is closed when the session has fully closed.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) run() {
	for {
		select {
		case ev := <-s.events:
			err := s.dispatch(ev.act)
			if ev.reply != nil {
				ev.reply <- err
			}
			if s.phase == PhaseClosed {
				return
			}
		case <-s.done:
			return
		}
	}
}

// armTimer arms a named timer whose firing is delivered through the
// event loop like any other action.
func (s *Session) armTimer(name string, d time.Duration) {
	s.timers.Arm(name, d, func(gen uint64) {
		select {
		case s.events <- envelope{act: timeoutAction(name, gen)}:
		case <-s.done:
		}
	})
}

func (s *Session) seat(p *Participant) {
	s.parts[p.UserID] = p
	s.order = append(s.order, p.UserID)
}

func (s *Session) unseat(userID int64) {
	delete(s.parts, userID)
	for i, id := range s.order {
		if id == userID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Session) render() {
	if s.cfg.OnUpdate != nil {
		s.cfg.OnUpdate(s)
	}
}

// touch re-arms the session-scoped inactivity timer.
func (s *Session) touch() {
	if s.cfg.Inactivity > 0 {
		s.armTimer(TimerInactivity, s.cfg.Inactivity)
	}
}

// dispatch is the phase-aware action dispatcher. A handler either
// fully applies an action or applies none of it; every rejection is
// returned to the actor without mutating state.
func (s *Session) dispatch(act Action) error {
	switch act.Kind {
	case actionTimeout:
		if !s.timers.current(act.timer, act.timerGen) {
			return nil // stale firing, a re-arm or cancel won the race
		}
		return s.handleTimeout(act.timer)
	case ActionClose:
		s.close(act.Payload)
		return nil
	}

	s.touch()

	switch s.phase {
	case PhaseForming:
		return s.dispatchForming(act)
	case PhaseActive:
		return s.dispatchActive(act)
	case PhaseResolving, PhaseCooldown:
		if s.cfg.Mode == ModeTable && act.Kind == ActionBet {
			return ErrRoundInProgress
		}
		return ErrUnknownAction
	default:
		return ErrSessionClosed
	}
}

func (s *Session) dispatchForming(act Action) error {
	if s.cfg.Mode == ModeDuel {
		return s.dispatchChallenge(act)
	}

	switch act.Kind {
	case ActionBet:
		return s.placeBet(act)
	case ActionLeave:
		if s.parts[act.Actor] == nil {
			return ErrNotSeated
		}
		s.unseat(act.Actor)
		s.checkEmpty()
		s.render()
		return nil
	case ActionReady:
		p := s.parts[act.Actor]
		if p == nil {
			return ErrNotSeated
		}
		p.State = StateReady
		if s.allReady() {
			s.timers.Cancel(TimerCountdown)
			s.countdownAt = time.Time{}
			s.startRound()
			return nil
		}
		if !s.countdownAt.IsZero() {
			s.render()
			return nil
		}
		s.countdownAt = time.Now().Add(s.cfg.Countdown)
		s.armTimer(TimerCountdown, s.cfg.Countdown)
		s.render()
		return nil
	default:
		return ErrUnknownAction
	}
}

// placeBet seats the actor or changes their stake. The live balance is
// read at validation time; it is re-checked again at stake-commit time
// to close the race with concurrent spending.
func (s *Session) placeBet(act Action) error {
	if act.Amount <= 0 {
		return ErrInvalidStake
	}
	if s.cfg.MaxBet > 0 && act.Amount > s.cfg.MaxBet {
		return ErrStakeTooLarge
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	balance, err := s.cfg.Ledger.Balance(ctx, s.cfg.ChatID, act.Actor)
	cancel()
	if err != nil {
		return err
	}
	if s.phase != PhaseForming {
		return ErrRoundInProgress
	}
	if balance < act.Amount {
		return ErrInsufficientFunds
	}

	if p := s.parts[act.Actor]; p != nil {
		p.Stake = act.Amount
		p.State = StateWaiting
	} else {
		s.seat(&Participant{UserID: act.Actor, Name: act.Payload, Stake: act.Amount, State: StateWaiting})
	}
	s.timers.Cancel(TimerEmpty)
	s.render()
	return nil
}

func (s *Session) dispatchChallenge(act Action) error {
	switch act.Kind {
	case ActionAccept:
		if act.Actor != s.cfg.Opponent {
			return ErrNotYourChallenge
		}
		return s.beginDuel()
	case ActionDecline:
		if act.Actor != s.cfg.Opponent {
			return ErrNotYourChallenge
		}
		s.close("challenge declined")
		return nil
	default:
		return ErrUnknownAction
	}
}

// beginDuel re-validates both balances, debits both stakes and starts
// play. Nothing has been debited before this point, so every failure
// path can simply close the session.
func (s *Session) beginDuel() error {
	stake := s.cfg.Stake
	for _, id := range []int64{s.cfg.Challenger, s.cfg.Opponent} {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		balance, err := s.cfg.Ledger.Balance(ctx, s.cfg.ChatID, id)
		cancel()
		if err != nil {
			return err
		}
		if balance < stake {
			s.close("a player no longer has enough silver")
			return ErrInsufficientFunds
		}
	}

	for i, id := range []int64{s.cfg.Challenger, s.cfg.Opponent} {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		err := s.cfg.Ledger.Adjust(ctx, s.cfg.ChatID, id, stake, Subtract, ReasonStake)
		cancel()
		if err != nil {
			log.Error().Err(err).
				Str("session", s.id.String()).
				Int64("user", id).
				Msg("Duel stake debit failed")
			if i == 1 {
				// First debit went through: return it before closing.
				s.refund(s.cfg.Challenger, stake)
			}
			s.close("ledger unavailable")
			return err
		}
	}

	s.timers.Cancel(TimerAccept)
	s.parts[s.cfg.Opponent].State = StateReady
	s.begin()
	return nil
}

// startRound moves a forming table into active play: unready seats are
// dropped (their stake was never debited), every surviving stake is
// re-validated against the live balance and debited, and the round is
// dealt.
func (s *Session) startRound() {
	if s.phase != PhaseForming {
		return
	}
	s.countdownAt = time.Time{}

	// Kick seats that never confirmed before the countdown elapsed.
	for _, p := range s.Participants() {
		if p.State != StateReady {
			s.unseat(p.UserID)
		}
	}
	if len(s.parts) == 0 {
		s.checkEmpty()
		s.render()
		return
	}

	// Stake-commit: re-check and debit. Insufficient or failing seats
	// are dropped rather than blocking the round for everyone else.
	for _, p := range s.Participants() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		balance, err := s.cfg.Ledger.Balance(ctx, s.cfg.ChatID, p.UserID)
		cancel()
		if err != nil {
			log.Error().Err(err).
				Str("session", s.id.String()).
				Int64("user", p.UserID).
				Msg("Balance check failed at round start, dropping seat")
			s.unseat(p.UserID)
			continue
		}
		if balance < p.Stake {
			s.unseat(p.UserID)
			continue
		}

		ctx, cancel = context.WithTimeout(context.Background(), opTimeout)
		err = s.cfg.Ledger.Adjust(ctx, s.cfg.ChatID, p.UserID, p.Stake, Subtract, ReasonStake)
		cancel()
		if err != nil {
			log.Error().Err(err).
				Str("session", s.id.String()).
				Int64("user", p.UserID).
				Msg("Stake debit failed at round start, dropping seat")
			s.unseat(p.UserID)
		}
	}

	if len(s.parts) == 0 {
		s.checkEmpty()
		s.render()
		return
	}

	s.begin()
}

// begin enters PhaseActive: stakes are in escrow, resources dealt.
func (s *Session) begin() {
	s.phase = PhaseActive
	s.settled = false
	s.cfg.Rules.Deal(s)

	if s.turn != 0 && s.cfg.TurnTimeout > 0 {
		s.armTimer(TimerTurn, s.cfg.TurnTimeout)
	} else if s.cfg.MoveWindow > 0 {
		s.armTimer(TimerMove, s.cfg.MoveWindow)
	}

	s.render()

	// Rare: everyone dealt a terminal state (all naturals).
	if s.cfg.Rules.Done(s) {
		s.resolve(s.cfg.Rules.Outcomes(s))
	}
}

func (s *Session) dispatchActive(act Action) error {
	switch act.Kind {
	case ActionMove, ActionGuess:
		p := s.parts[act.Actor]
		if p == nil {
			return ErrNotSeated
		}
		if err := s.cfg.Rules.Handle(s, act); err != nil {
			return err
		}
		if s.cfg.Rules.Done(s) {
			s.resolve(s.cfg.Rules.Outcomes(s))
			return nil
		}
		if s.turn != 0 && s.cfg.TurnTimeout > 0 {
			s.armTimer(TimerTurn, s.cfg.TurnTimeout)
		}
		s.render()
		return nil
	case ActionBet:
		return ErrRoundInProgress
	case ActionLeave:
		return ErrRoundInProgress
	default:
		return ErrUnknownAction
	}
}

func (s *Session) handleTimeout(name string) error {
	switch name {
	case TimerCountdown:
		if s.phase == PhaseForming && s.cfg.Mode == ModeTable {
			s.startRound()
		}
	case TimerAccept:
		if s.phase == PhaseForming && s.cfg.Mode == ModeDuel {
			s.close("challenge expired")
		}
	case TimerTurn:
		if s.phase == PhaseActive && s.turn != 0 {
			// The acting side forfeits this round, not the session.
			s.resolve(s.cfg.Rules.Forfeit(s, s.turn))
		}
	case TimerMove:
		if s.phase == PhaseActive {
			s.resolve(s.cfg.Rules.Forfeit(s, 0))
		}
	case TimerCooldown:
		if s.phase == PhaseCooldown {
			s.resetRound()
		}
	case TimerInactivity:
		s.close("closed due to inactivity")
	case TimerEmpty:
		if s.phase == PhaseForming && len(s.parts) == 0 {
			s.close("closed because the table stayed empty")
		}
	}
	return nil
}

// resolve executes the terminal transition: settlement runs exactly
// once, then the session cools down (table) or closes (duel).
func (s *Session) resolve(outcomes []Outcome) {
	if s.phase != PhaseActive {
		return
	}
	s.phase = PhaseResolving
	s.turn = 0
	s.timers.Cancel(TimerTurn)
	s.timers.Cancel(TimerMove)

	s.settle(outcomes)

	if s.cfg.Mode == ModeTable {
		s.phase = PhaseCooldown
		s.armTimer(TimerCooldown, s.cfg.Cooldown)
		s.render()
		return
	}
	s.close("finished")
}

// settle invokes the ledger once per non-loss outcome. It is guarded
// by the settled flag so a second invocation for the same terminal
// state is a no-op. A credit failure is logged and recorded on the
// outcome but never blocks the phase transition: money-in-flight is
// preferred to a permanently stuck session.
func (s *Session) settle(outcomes []Outcome) {
	if s.settled {
		log.Warn().
			Str("session", s.id.String()).
			Msg("Settlement invoked twice for the same round, ignoring")
		return
	}
	s.settled = true

	for i := range outcomes {
		out := &outcomes[i]
		switch out.Kind {
		case Win, Refund:
			if out.Amount <= 0 {
				break
			}
			reason := ReasonWin
			if out.Kind == Refund {
				reason = ReasonRefund
			}
			ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
			err := s.cfg.Ledger.Adjust(ctx, s.cfg.ChatID, out.UserID, out.Amount, Add, reason)
			cancel()
			if err != nil {
				out.Failed = true
				log.Error().Err(err).
					Str("session", s.id.String()).
					Int64("user", out.UserID).
					Int64("amount", out.Amount).
					Msg("Settlement credit failed")
			}
		}
		if p := s.parts[out.UserID]; p != nil {
			o := *out
			p.Outcome = &o
			p.State = StateDone
		}
	}

	log.Info().
		Str("session", s.id.String()).
		Int64("chat", s.cfg.ChatID).
		Str("game", s.cfg.Rules.Name()).
		Int("outcomes", len(outcomes)).
		Msg("Round settled")
}

func (s *Session) refund(userID, amount int64) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := s.cfg.Ledger.Adjust(ctx, s.cfg.ChatID, userID, amount, Add, ReasonRefund); err != nil {
		log.Error().Err(err).
			Str("session", s.id.String()).
			Int64("user", userID).
			Int64("amount", amount).
			Msg("Compensating refund failed")
	}
}

// resetRound discards the round's shared resources and returns a table
// to PhaseForming with its seats retained.
func (s *Session) resetRound() {
	s.phase = PhaseForming
	s.settled = false
	s.turn = 0
	s.countdownAt = time.Time{}
	for _, p := range s.parts {
		p.State = StateWaiting
		p.Outcome = nil
	}
	s.checkEmpty()
	s.render()
}

func (s *Session) allReady() bool {
	for _, p := range s.parts {
		if p.State != StateReady {
			return false
		}
	}
	return len(s.parts) > 0
}

func (s *Session) checkEmpty() {
	if s.cfg.Mode == ModeTable && len(s.parts) == 0 && s.cfg.EmptyClose > 0 {
		s.armTimer(TimerEmpty, s.cfg.EmptyClose)
	}
}

// close is the single exit point. If an active or resolving round is
// being abandoned with stakes still in escrow, a deterministic
// forfeit/refund is settled first: an open session must never leave
// wagered stakes un-settled.
func (s *Session) close(reason string) {
	if s.phase == PhaseClosed {
		return
	}
	if (s.phase == PhaseActive || s.phase == PhaseResolving) && !s.settled {
		s.settle(s.cfg.Rules.Forfeit(s, s.turn))
	}

	s.phase = PhaseClosed
	s.closeReason = reason
	s.timers.CancelAll()
	s.reg.release(s.key, s)
	s.render()
	close(s.done)

	log.Info().
		Str("session", s.id.String()).
		Int64("chat", s.cfg.ChatID).
		Str("game", s.cfg.Rules.Name()).
		Str("reason", reason).
		Msg("Session closed")
}
