package flip

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/coinflip-platform-poc/pkg/contracts/events"
)

// Ledger é o contrato com o serviço de fundos externo. Todas as
// chamadas podem demorar ou falhar; nenhuma é retentada aqui.
type Ledger interface {
	Balance(ctx context.Context, user, currency string) (int64, error)
	Withdraw(ctx context.Context, user, currency string, amount int64) error
	Deposit(ctx context.Context, user, currency string, amount int64) error
}

// Publisher emite os eventos do ciclo de vida. Falha de publicação
// nunca desfaz movimentação de fundos.
type Publisher interface {
	PublishFlipEvent(ctx context.Context, ev events.FlipEvent) error
	PublishFlipAlert(ctx context.Context, al events.FlipAlert) error
}

// Store guarda o snapshot dos flips abertos para sobreviver a restart.
type Store interface {
	Save(flips []Flip) error
	LoadAndDelete() ([]Flip, error)
}

// Params são as regras estáticas do flip, vindas da config.
type Params struct {
	MaxPerPlayer int
	Timeout      time.Duration
	Presentation time.Duration
	FeePercent   int64
	FeeOverrides map[string]int64  // por alias de moeda
	Aliases      map[string]string // alias -> chave completa
}

// KeyFor resolve o alias pedido pelo jogador na chave completa da moeda.
func (p Params) KeyFor(alias string) (string, bool) {
	key, ok := p.Aliases[alias]
	return key, ok
}

// AliasFor faz o caminho inverso; se a chave não tem alias, devolve ela mesma.
func (p Params) AliasFor(key string) string {
	for alias, k := range p.Aliases {
		if k == key {
			return alias
		}
	}
	return key
}

// FeePercentFor devolve a taxa da moeda, ou a global se não há override.
func (p Params) FeePercentFor(alias string) int64 {
	if pct, ok := p.FeeOverrides[alias]; ok {
		return pct
	}
	return p.FeePercent
}

// Manager coordena custódia e transições de estado dos flips: valida
// no registro, movimenta fundos no ledger e só então muta o estado.
// Nenhum lock do registro é segurado durante chamadas ao ledger.
type Manager struct {
	log    *zap.Logger
	params Params
	ledger Ledger
	store  Store
	publ   Publisher

	reg      *Registry
	presence *Presence
	sched    *Scheduler

	// moeda: true = criador vence; injetável nos testes
	coin func() bool

	refundMu sync.Mutex
	refunds  map[string][]Flip // reembolsos devidos a jogadores offline

	// ordena leitura do registro + escrita do snapshot: sem ele, um
	// persist atrasado gravaria um estado mais antigo por cima do novo
	persistMu sync.Mutex

	wg sync.WaitGroup // depósitos de pagamento em andamento

	// callbacks de métricas (counter++), ligadas no main
	OnCreated       func()
	OnJoined        func()
	OnCancelled     func()
	OnTimedOut      func()
	OnResolved      func()
	OnRefunded      func()
	OnPayoutFailure func()
}

func NewManager(log *zap.Logger, params Params, ledger Ledger, store Store, publ Publisher) *Manager {
	return &Manager{
		log:      log,
		params:   params,
		ledger:   ledger,
		store:    store,
		publ:     publ,
		reg:      NewRegistry(params.MaxPerPlayer),
		presence: NewPresence(),
		sched:    NewScheduler(),
		coin:     cryptoCoin,
		refunds:  make(map[string][]Flip),
	}
}

// cryptoCoin tira cara ou coroa com fonte criptográfica.
func cryptoCoin() bool {
	var b [1]byte
	_, _ = rand.Read(b[:])
	return b[0]&1 == 0
}

// Recover carrega o snapshot deixado por um processo anterior. Flips
// sem joiner viram reembolsos pendentes, pagos quando o jogador
// reconectar; nada volta para o registro vivo porque os timers de
// timeout se perderam no restart.
func (m *Manager) Recover() error {
	flips, err := m.store.LoadAndDelete()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m.refundMu.Lock()
	defer m.refundMu.Unlock()
	for _, f := range flips {
		if f.Joiner != "" {
			// join concluído antes do crash: o flip já tinha saído do
			// estado aberto e a resolução se perdeu junto com o processo.
			// As duas apostas estão retidas; alerta por participante para
			// a reconciliação manual
			m.log.Warn("joined flip in snapshot, dropping",
				zap.String("flipId", f.ID), zap.String("creator", f.Creator))
			m.alert(ctx, f.ID, f.Creator, f.AmountCents, f.Currency, "resolution_lost")
			m.alert(ctx, f.ID, f.Joiner, f.AmountCents, f.Currency, "resolution_lost")
			continue
		}
		m.refunds[f.Creator] = append(m.refunds[f.Creator], f)
	}
	if n := len(m.refunds); n > 0 {
		m.log.Info("queued refunds from snapshot", zap.Int("players", n))
	}
	return nil
}

// Create retira a aposta do criador e registra o flip.
// Ordem obrigatória: limite -> saque -> registro -> timer -> snapshot.
// O limite é reservado antes do saque; falha depois do saque e antes
// do registro seria fundo perdido, então essa janela não existe.
func (m *Manager) Create(ctx context.Context, creator, currencyAlias string, amount int64) (Flip, error) {
	if amount <= 0 {
		return Flip{}, ErrInvalidAmount
	}
	currency, ok := m.params.KeyFor(currencyAlias)
	if !ok {
		return Flip{}, ErrInvalidCurrency
	}

	if err := m.reg.Reserve(creator); err != nil {
		return Flip{}, err
	}

	bal, err := m.ledger.Balance(ctx, creator, currency)
	if err != nil {
		m.reg.Release(creator)
		return Flip{}, ErrLedgerUnavailable
	}
	if bal < amount {
		m.reg.Release(creator)
		return Flip{}, ErrInsufficientFunds
	}
	if err := m.ledger.Withdraw(ctx, creator, currency, amount); err != nil {
		m.reg.Release(creator)
		// o saldo pode ter caído entre a consulta e o saque
		if errors.Is(err, ErrInsufficientFunds) {
			return Flip{}, ErrInsufficientFunds
		}
		return Flip{}, ErrLedgerUnavailable
	}

	f := newFlip(creator, amount, currency)
	m.reg.Insert(f)

	m.sched.Schedule(f.ID, m.params.Timeout, func() {
		m.expire(f.Creator, f.ID)
	})

	m.persist()
	m.publishEvent(ctx, events.FlipEvent{
		Type:        events.FlipCreated,
		FlipID:      f.ID,
		Creator:     f.Creator,
		AmountCents: f.AmountCents,
		Currency:    currencyAlias,
	})

	m.log.Info("flip created",
		zap.String("flipId", f.ID),
		zap.String("creator", creator),
		zap.Int64("amountCents", amount),
		zap.String("currency", currencyAlias))
	if m.OnCreated != nil {
		m.OnCreated()
	}
	return *f, nil
}

// Join retira a aposta do joiner, grava o joiner no flip e resolve.
// Se o flip sumiu entre o saque e a escrita (cancel/timeout ganhou a
// corrida), o valor sacado volta para o joiner.
func (m *Manager) Join(ctx context.Context, joiner, creator, flipID string) (Result, error) {
	if joiner == creator {
		return Result{}, ErrSelfJoin
	}
	if m.presence.Contains(creator) {
		return Result{}, ErrCreatorBusy
	}

	f, ok := m.reg.FindAnyOpen(creator, flipID)
	if !ok || f.Joiner != "" {
		return Result{}, ErrNotFound
	}

	bal, err := m.ledger.Balance(ctx, joiner, f.Currency)
	if err != nil {
		return Result{}, ErrLedgerUnavailable
	}
	if bal < f.AmountCents {
		return Result{}, ErrInsufficientFunds
	}
	if err := m.ledger.Withdraw(ctx, joiner, f.Currency, f.AmountCents); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return Result{}, ErrInsufficientFunds
		}
		return Result{}, ErrLedgerUnavailable
	}

	claimed, ok := m.reg.ClaimJoin(creator, flipID, joiner)
	if !ok {
		// o flip saiu do estado aberto durante o saque: devolve a
		// aposta do joiner e reporta como já levado
		if derr := m.ledger.Deposit(ctx, joiner, f.Currency, f.AmountCents); derr != nil {
			m.alert(ctx, flipID, joiner, f.AmountCents, f.Currency, "refund_failed")
			m.log.Error("join compensation deposit failed",
				zap.String("flipId", flipID), zap.String("joiner", joiner), zap.Error(derr))
		}
		return Result{}, ErrNotFound
	}

	m.publishEvent(ctx, events.FlipEvent{
		Type:        events.FlipJoined,
		FlipID:      claimed.ID,
		Creator:     claimed.Creator,
		Joiner:      joiner,
		AmountCents: claimed.AmountCents,
		Currency:    m.params.AliasFor(claimed.Currency),
	})
	if m.OnJoined != nil {
		m.OnJoined()
	}

	return m.resolve(ctx, claimed), nil
}

// resolve tira a moeda, fecha o ciclo de vida do flip e paga o
// vencedor. O flip sai do registro antes do depósito: o resultado do
// pagamento não muda mais o estado.
func (m *Manager) resolve(ctx context.Context, f Flip) Result {
	winner, loser := f.Joiner, f.Creator
	if m.coin() {
		winner, loser = f.Creator, f.Joiner
	}

	alias := m.params.AliasFor(f.Currency)
	pot := 2 * f.AmountCents
	fee := pot * m.params.FeePercentFor(alias) / 100
	payout := pot - fee

	m.reg.Remove(f.Creator, f.ID)
	m.persist()

	m.presence.AddFor(f.Creator, m.params.Presentation)
	m.presence.AddFor(f.Joiner, m.params.Presentation)

	res := Result{
		Flip:        f,
		Winner:      winner,
		Loser:       loser,
		PotCents:    pot,
		FeeCents:    fee,
		PayoutCents: payout,
	}

	m.log.Info("flip resolved",
		zap.String("flipId", f.ID),
		zap.String("winner", winner),
		zap.Int64("payoutCents", payout),
		zap.Int64("feeCents", fee))

	// pagamento assíncrono; falha aqui não tem rollback possível, o
	// perdedor já apostou — só log alto e alerta para reconciliação
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.ledger.Deposit(dctx, winner, f.Currency, payout); err != nil {
			m.log.Error("payout deposit failed",
				zap.String("flipId", f.ID),
				zap.String("winner", winner),
				zap.Int64("payoutCents", payout),
				zap.Error(err))
			m.alert(dctx, f.ID, winner, payout, f.Currency, "payout_failed")
			if m.OnPayoutFailure != nil {
				m.OnPayoutFailure()
			}
		}
	}()

	m.publishEvent(ctx, events.FlipEvent{
		Type:        events.FlipResolved,
		FlipID:      f.ID,
		Creator:     f.Creator,
		Joiner:      f.Joiner,
		Winner:      winner,
		AmountCents: f.AmountCents,
		Currency:    alias,
		PotCents:    pot,
		FeeCents:    fee,
		PayoutCents: payout,
	})
	if m.OnResolved != nil {
		m.OnResolved()
	}
	return res
}

// Cancel reembolsa o flip sem joiner mais antigo do criador. O flip é
// reivindicado antes do depósito; se o depósito falhar ele volta ao
// registro e um cancel futuro tenta de novo.
func (m *Manager) Cancel(ctx context.Context, creator string) (Flip, error) {
	f, ok := m.reg.ClaimFirstUnjoined(creator)
	if !ok {
		return Flip{}, ErrNoCancellableFlip
	}

	if err := m.ledger.Deposit(ctx, creator, f.Currency, f.AmountCents); err != nil {
		m.reg.Restore(f)
		return Flip{}, ErrLedgerUnavailable
	}

	m.persist()
	m.publishEvent(ctx, events.FlipEvent{
		Type:        events.FlipCancelled,
		FlipID:      f.ID,
		Creator:     creator,
		AmountCents: f.AmountCents,
		Currency:    m.params.AliasFor(f.Currency),
	})

	m.log.Info("flip cancelled",
		zap.String("flipId", f.ID), zap.String("creator", creator))
	if m.OnCancelled != nil {
		m.OnCancelled()
	}
	return f, nil
}

// expire é o disparo do timer de timeout. Revalida no registro: se o
// flip já foi levado por join ou cancel, vira no-op silencioso.
func (m *Manager) expire(creator, flipID string) {
	f, ok := m.reg.ClaimUnjoined(creator, flipID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.ledger.Deposit(ctx, creator, f.Currency, f.AmountCents); err != nil {
		// devolve ao registro para um cancel manual tentar depois
		m.reg.Restore(f)
		m.log.Warn("timeout refund deposit failed, flip restored",
			zap.String("flipId", flipID), zap.Error(err))
		return
	}

	m.persist()

	// aviso ao criador é melhor-esforço via evento; nunca bloqueia nem
	// desfaz o reembolso
	m.publishEvent(ctx, events.FlipEvent{
		Type:        events.FlipTimedOut,
		FlipID:      f.ID,
		Creator:     creator,
		AmountCents: f.AmountCents,
		Currency:    m.params.AliasFor(f.Currency),
	})

	m.log.Info("flip timed out, creator refunded",
		zap.String("flipId", flipID), zap.String("creator", creator))
	if m.OnTimedOut != nil {
		m.OnTimedOut()
	}
}

// Connect paga os reembolsos devidos ao jogador que acabou de aparecer.
// A entrada da fila é consumida antes dos depósitos: o mesmo evento de
// conexão disparado duas vezes não paga duas vezes.
func (m *Manager) Connect(ctx context.Context, player string) []Flip {
	m.refundMu.Lock()
	owed := m.refunds[player]
	delete(m.refunds, player)
	m.refundMu.Unlock()

	if len(owed) == 0 {
		return nil
	}

	var refunded []Flip
	for _, f := range owed {
		if err := m.ledger.Deposit(ctx, player, f.Currency, f.AmountCents); err != nil {
			m.alert(ctx, f.ID, player, f.AmountCents, f.Currency, "refund_failed")
			m.log.Error("queued refund deposit failed",
				zap.String("flipId", f.ID), zap.String("player", player), zap.Error(err))
			continue
		}
		refunded = append(refunded, f)
		m.publishEvent(ctx, events.FlipEvent{
			Type:        events.FlipRefunded,
			FlipID:      f.ID,
			Creator:     player,
			AmountCents: f.AmountCents,
			Currency:    m.params.AliasFor(f.Currency),
		})
		if m.OnRefunded != nil {
			m.OnRefunded()
		}
	}
	return refunded
}

// Disconnect reembolsa e remove os flips sem joiner do jogador e o
// tira da exibição de resultado. Depósito que falhar vira reembolso
// pendente para o próximo login.
func (m *Manager) Disconnect(ctx context.Context, player string) {
	claimed := m.reg.ClaimAllUnjoined(player)
	for _, f := range claimed {
		if err := m.ledger.Deposit(ctx, player, f.Currency, f.AmountCents); err != nil {
			m.refundMu.Lock()
			m.refunds[player] = append(m.refunds[player], f)
			m.refundMu.Unlock()
			m.log.Warn("disconnect refund deposit failed, queued",
				zap.String("flipId", f.ID), zap.Error(err))
			continue
		}
		m.publishEvent(ctx, events.FlipEvent{
			Type:        events.FlipRefunded,
			FlipID:      f.ID,
			Creator:     player,
			AmountCents: f.AmountCents,
			Currency:    m.params.AliasFor(f.Currency),
		})
	}
	if len(claimed) > 0 {
		m.persist()
	}
	m.presence.Remove(player)
}

// CurrencyAlias expõe o alias configurado da moeda, para respostas ao
// jogador.
func (m *Manager) CurrencyAlias(key string) string {
	return m.params.AliasFor(key)
}

// OpenFlips lista os flips abertos; leitura defasada é aceitável aqui.
func (m *Manager) OpenFlips() []Flip {
	return m.reg.Snapshot()
}

// Shutdown para os timers, espera pagamentos em voo e grava o snapshot
// final. Flips ainda abertos serão reembolsados na recuperação.
func (m *Manager) Shutdown() {
	m.sched.Stop()
	m.wg.Wait()
	m.persist()
}

func (m *Manager) persist() {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	if err := m.store.Save(m.reg.Snapshot()); err != nil {
		m.log.Warn("snapshot save failed", zap.Error(err))
	}
}

func (m *Manager) publishEvent(ctx context.Context, ev events.FlipEvent) {
	ev.TsUnixMs = time.Now().UnixMilli()
	if err := m.publ.PublishFlipEvent(ctx, ev); err != nil {
		m.log.Warn("publish flip event", zap.String("type", ev.Type), zap.Error(err))
	}
}

func (m *Manager) alert(ctx context.Context, flipID, user string, amount int64, currency, reason string) {
	al := events.FlipAlert{
		FlipID:      flipID,
		User:        user,
		AmountCents: amount,
		Currency:    m.params.AliasFor(currency),
		Reason:      reason,
		TsUnixMs:    time.Now().UnixMilli(),
	}
	if err := m.publ.PublishFlipAlert(ctx, al); err != nil {
		m.log.Error("publish flip alert", zap.String("reason", reason), zap.Error(err))
	}
}
