package client

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/lidofinance/validator-ejector/beacon"
	"github.com/lidofinance/validator-ejector/consensus-types/eth"
	types "github.com/lidofinance/validator-ejector/consensus-types/primitives"
	"github.com/lidofinance/validator-ejector/ejector/db/kv"
	"github.com/lidofinance/validator-ejector/ejector/messages"
	"github.com/lidofinance/validator-ejector/ejector/oracle"
	"github.com/lidofinance/validator-ejector/testing/require"
	"github.com/pkg/errors"
)

type fakeChain struct {
	events       []*oracle.ExitRequestEvent
	verifyErrs   map[uint64]error
	verifyCalls  map[uint64]int
	resolveErr   error
	fetchErr     error
	lastSearched uint64
}

func newFakeChain(events ...*oracle.ExitRequestEvent) *fakeChain {
	return &fakeChain{
		events:      events,
		verifyErrs:  make(map[uint64]error),
		verifyCalls: make(map[uint64]int),
	}
}

func (f *fakeChain) ResolveExitBusAddress(_ context.Context) (common.Address, error) {
	return common.Address{1}, f.resolveErr
}

func (f *fakeChain) ResolveConsensusAddress(_ context.Context) (common.Address, error) {
	return common.Address{2}, f.resolveErr
}

func (f *fakeChain) FetchExitRequestEvents(_ context.Context, _, _ uint64) ([]*oracle.ExitRequestEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.events, nil
}

func (f *fakeChain) VerifyEvent(_ context.Context, pubkey [48]byte, _ common.Hash, toBlock uint64) error {
	f.lastSearched = toBlock
	index := eventIndexByPubkey(f.events, pubkey)
	f.verifyCalls[index]++
	return f.verifyErrs[index]
}

func (f *fakeChain) LastRequestedValidatorIndex(_ context.Context) (int64, error) {
	return int64(len(f.events)) - 1, nil
}

func eventIndexByPubkey(events []*oracle.ExitRequestEvent, pubkey [48]byte) uint64 {
	for _, ev := range events {
		if ev.ValidatorPubkey == pubkey {
			return ev.ValidatorIndex
		}
	}
	return 0
}

type fakeExecution struct {
	finalized uint64
	syncing   *ethereum.SyncProgress
	err       error
}

func (f *fakeExecution) SyncProgress(_ context.Context) (*ethereum.SyncProgress, error) {
	return f.syncing, nil
}

func (f *fakeExecution) FinalizedHeader(_ context.Context) (*gethtypes.Header, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &gethtypes.Header{Number: new(big.Int).SetUint64(f.finalized)}, nil
}

type fakeConsensus struct {
	validators  map[string]*beacon.Validator
	submitErrs  map[uint64]error
	submitted   []uint64
	lookupCalls int
	syncing     bool
}

func newFakeConsensus() *fakeConsensus {
	return &fakeConsensus{
		validators: make(map[string]*beacon.Validator),
		submitErrs: make(map[uint64]error),
	}
}

func (f *fakeConsensus) addValidator(index uint64, pubkey [48]byte, status beacon.ValidatorStatus) {
	f.validators[hexutil.Encode(pubkey[:])] = &beacon.Validator{
		Index:  types.ValidatorIndex(index),
		Pubkey: pubkey[:],
		Status: status,
	}
}

func (f *fakeConsensus) NodeSyncing(_ context.Context) (*beacon.SyncStatus, error) {
	return &beacon.SyncStatus{IsSyncing: f.syncing, SyncDistance: 64}, nil
}

func (f *fakeConsensus) Validator(_ context.Context, id string) (*beacon.Validator, error) {
	f.lookupCalls++
	v, ok := f.validators[id]
	if !ok {
		return nil, beacon.ErrNotFound
	}
	return v, nil
}

func (f *fakeConsensus) SubmitVoluntaryExit(_ context.Context, exit *eth.SignedVoluntaryExit) error {
	index := uint64(exit.Exit.ValidatorIndex)
	if err := f.submitErrs[index]; err != nil {
		return err
	}
	f.submitted = append(f.submitted, index)
	return nil
}

type fakeReloader struct {
	report *messages.ReconcileReport
	err    error
	calls  int
}

func (f *fakeReloader) Reconcile(_ context.Context) (*messages.ReconcileReport, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.report == nil {
		return &messages.ReconcileReport{}, nil
	}
	return f.report, nil
}

type fakeCreator struct {
	requested []string
}

func (f *fakeCreator) RequestMessageCreation(_ context.Context, pubkey string) error {
	f.requested = append(f.requested, pubkey)
	return nil
}

type fakeSink struct {
	reports []*CycleReport
}

func (f *fakeSink) ObserveCycle(report *CycleReport) {
	f.reports = append(f.reports, report)
}

type fakeCursorDB struct {
	rec   *kv.CursorRecord
	saves int
}

func (f *fakeCursorDB) ResumeCursor(_, _ uint64) (*kv.CursorRecord, error) {
	return f.rec, nil
}

func (f *fakeCursorDB) SaveResumeCursor(_, _ uint64, rec *kv.CursorRecord) error {
	saved := *rec
	f.rec = &saved
	f.saves++
	return nil
}

func testEvent(index uint64, fill byte) *oracle.ExitRequestEvent {
	var pk [48]byte
	for i := range pk {
		pk[i] = fill
	}
	return &oracle.ExitRequestEvent{
		ValidatorIndex:  index,
		ValidatorPubkey: pk,
		StakingModuleID: 1,
		NodeOperatorID:  2,
		TxHash:          common.Hash{fill},
		BlockNumber:     100,
	}
}

func storedMessage(index uint64) *messages.StoredMessage {
	return &messages.StoredMessage{
		Message:  messages.ExitMessage{Epoch: 194048, ValidatorIndex: index},
		Checksum: string(rune('a' + index)),
		SourceID: "msg.json",
	}
}

type harness struct {
	service   *Service
	chain     *fakeChain
	execution *fakeExecution
	consensus *fakeConsensus
	store     *messages.Store
	reloader  *fakeReloader
	creator   *fakeCreator
	sink      *fakeSink
	db        *fakeCursorDB
}

func newHarness(t *testing.T, mode DispatchMode, events ...*oracle.ExitRequestEvent) *harness {
	h := &harness{
		chain:     newFakeChain(events...),
		execution: &fakeExecution{finalized: 1000},
		consensus: newFakeConsensus(),
		store:     messages.NewStore(),
		reloader:  &fakeReloader{},
		creator:   &fakeCreator{},
		sink:      &fakeSink{},
		db:        &fakeCursorDB{},
	}
	dispatcher, err := NewDispatcher(&DispatcherConfig{
		Mode:      mode,
		Consensus: h.consensus,
		Store:     h.store,
		Creator:   h.creator,
	})
	require.NoError(t, err)
	h.service, err = NewService(context.Background(), &Config{
		Verifier:        h.chain,
		Execution:       h.execution,
		Consensus:       h.consensus,
		Reloader:        h.reloader,
		Dispatcher:      dispatcher,
		DB:              h.db,
		Metrics:         h.sink,
		StakingModuleID: 1,
		NodeOperatorID:  2,
		BlockLookback:   500,
		CycleInterval:   time.Minute,
	})
	require.NoError(t, err)
	return h
}

func TestRunJobCycle_EndToEnd(t *testing.T) {
	ev10 := testEvent(10, 0xaa)
	ev11 := testEvent(11, 0xbb)
	ev12 := testEvent(12, 0xcc)
	h := newHarness(t, DirectSubmit, ev10, ev11, ev12)

	// Validator 10 is already exiting, 11 has no stored message, 12 has one.
	h.consensus.addValidator(10, ev10.ValidatorPubkey, beacon.StatusActiveExiting)
	h.consensus.addValidator(11, ev11.ValidatorPubkey, "active_ongoing")
	h.consensus.addValidator(12, ev12.ValidatorPubkey, "active_ongoing")
	h.store.Put(storedMessage(12))
	storeBefore := h.store.Count()

	report, err := h.service.RunJobCycle(context.Background())
	require.NoError(t, err)

	require.Equal(t, 3, report.Events)
	require.Equal(t, 1, report.AlreadyExiting)
	require.Equal(t, 1, report.MissingMessages)
	require.Equal(t, 1, report.Submitted)
	require.Equal(t, int64(2), report.Cursor) // positions 0..2, validator 12 is last.
	require.DeepEqual(t, []uint64{12}, h.consensus.submitted)
	require.DeepEqual(t, []string{hexutil.Encode(ev11.ValidatorPubkey[:])}, h.creator.requested)
	require.Equal(t, storeBefore, h.store.Count())
	require.Equal(t, 1, h.reloader.calls)
	require.Equal(t, 1, len(h.sink.reports))
}

func TestRunJobCycle_CursorMonotonicity(t *testing.T) {
	ev := testEvent(7, 0x01)
	h := newHarness(t, DirectSubmit, ev)
	h.consensus.addValidator(7, ev.ValidatorPubkey, "active_ongoing")
	h.store.Put(storedMessage(7))

	_, err := h.service.RunJobCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, len(h.consensus.submitted))

	// Same event list, same block range: nothing is reprocessed.
	_, err = h.service.RunJobCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, len(h.consensus.submitted))
	require.Equal(t, 1, h.chain.verifyCalls[7])
}

func TestRunJobCycle_MissingMessageRetriedAfterRangeMove(t *testing.T) {
	ev := testEvent(11, 0xbb)
	h := newHarness(t, DirectSubmit, ev)
	h.consensus.addValidator(11, ev.ValidatorPubkey, "active_ongoing")

	report, err := h.service.RunJobCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.MissingMessages)
	require.Equal(t, int64(-1), report.Cursor)

	// The operator provisions the message before the next cycle.
	h.store.Put(storedMessage(11))
	report, err = h.service.RunJobCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Submitted)
	require.DeepEqual(t, []uint64{11}, h.consensus.submitted)
}

func TestRunJobCycle_SkipsWhileExecutionNodeSyncing(t *testing.T) {
	ev := testEvent(11, 0xbb)
	h := newHarness(t, DirectSubmit, ev)
	h.execution.syncing = &ethereum.SyncProgress{CurrentBlock: 500, HighestBlock: 1000}

	_, err := h.service.RunJobCycle(context.Background())
	require.ErrorIs(t, err, ErrNodeSyncing)
	// Nothing downstream runs against the stale finalized view.
	require.Equal(t, 0, h.reloader.calls)
	require.Equal(t, uint64(0), h.chain.lastSearched)

	h.execution.syncing = nil
	h.consensus.addValidator(11, ev.ValidatorPubkey, "active_ongoing")
	h.store.Put(storedMessage(11))
	report, err := h.service.RunJobCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Submitted)
}

func TestRunJobCycle_SkipsWhileConsensusNodeSyncing(t *testing.T) {
	h := newHarness(t, DirectSubmit, testEvent(11, 0xbb))
	h.consensus.syncing = true

	_, err := h.service.RunJobCycle(context.Background())
	require.ErrorIs(t, err, ErrNodeSyncing)
	require.Equal(t, 0, h.reloader.calls)
	require.Equal(t, 0, h.consensus.lookupCalls)
}

func TestRunJobCycle_MissingMessageRetryWaitsForRangeMove(t *testing.T) {
	ev11 := testEvent(11, 0xbb)
	ev12 := testEvent(12, 0xcc)
	h := newHarness(t, DirectSubmit, ev11, ev12)
	h.consensus.addValidator(11, ev11.ValidatorPubkey, "active_ongoing")
	h.consensus.addValidator(12, ev12.ValidatorPubkey, "active_ongoing")
	h.store.Put(storedMessage(12))

	// Validator 11 has no message; validator 12 behind it succeeds and pulls
	// the cursor past position 0.
	report, err := h.service.RunJobCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.MissingMessages)
	require.Equal(t, int64(1), report.Cursor)

	// Message provisioned, but the finalized range has not moved: the scan
	// resumes after the cursor, so validator 11 waits.
	h.store.Put(storedMessage(11))
	report, err = h.service.RunJobCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, report.Submitted)
	require.Equal(t, 1, h.chain.verifyCalls[11])

	// The range moves, the cursor resets and the scan replays from the top.
	// Validator 12 already exited, validator 11 finally goes out.
	h.execution.finalized = 1100
	h.consensus.addValidator(12, ev12.ValidatorPubkey, beacon.StatusActiveExiting)
	report, err = h.service.RunJobCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Submitted)
	require.DeepEqual(t, []uint64{12, 11}, h.consensus.submitted)
}

func TestRunJobCycle_PartialFailureIsolation(t *testing.T) {
	ev5 := testEvent(5, 0x05)
	ev6 := testEvent(6, 0x06)
	ev7 := testEvent(7, 0x07)
	h := newHarness(t, DirectSubmit, ev5, ev6, ev7)
	for _, ev := range []*oracle.ExitRequestEvent{ev5, ev6, ev7} {
		h.consensus.addValidator(ev.ValidatorIndex, ev.ValidatorPubkey, "active_ongoing")
		h.store.Put(storedMessage(ev.ValidatorIndex))
	}
	h.consensus.submitErrs[6] = errors.New("pool rejected exit")

	report, err := h.service.RunJobCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Submitted)
	require.Equal(t, 1, report.Failures)
	require.DeepEqual(t, []uint64{5, 7}, h.consensus.submitted)
}

func TestRunJobCycle_VerificationRejectionDoesNotAbortBatch(t *testing.T) {
	ev1 := testEvent(1, 0x11)
	ev2 := testEvent(2, 0x22)
	h := newHarness(t, DirectSubmit, ev1, ev2)
	h.consensus.addValidator(1, ev1.ValidatorPubkey, "active_ongoing")
	h.consensus.addValidator(2, ev2.ValidatorPubkey, "active_ongoing")
	h.store.Put(storedMessage(1))
	h.store.Put(storedMessage(2))
	h.chain.verifyErrs[1] = errors.Wrap(oracle.ErrUntrustedSigner, "signer 0xdead")

	report, err := h.service.RunJobCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Rejected)
	require.Equal(t, 1, report.Submitted)
	require.DeepEqual(t, []uint64{2}, h.consensus.submitted)
	// The rejection is deterministic, so the cursor moves past it.
	require.Equal(t, int64(1), report.Cursor)
}

func TestRunJobCycle_DryRunHasNoSideEffects(t *testing.T) {
	ev := testEvent(3, 0x33)
	h := newHarness(t, DryRun, ev)
	h.consensus.addValidator(3, ev.ValidatorPubkey, "active_ongoing")

	report, err := h.service.RunJobCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.DryRun)
	require.Equal(t, 0, len(h.consensus.submitted))
	require.Equal(t, int64(0), report.Cursor)
}

func TestRunJobCycle_AddressResolutionAbortsCycle(t *testing.T) {
	h := newHarness(t, DirectSubmit, testEvent(1, 0x11))
	h.chain.resolveErr = errors.Wrap(oracle.ErrAddressResolution, "locator returned garbage")

	_, err := h.service.RunJobCycle(context.Background())
	require.ErrorIs(t, err, oracle.ErrAddressResolution)
	require.Equal(t, 0, h.consensus.lookupCalls)
}

func TestRunJobCycle_ReloadFailureAbortsCycle(t *testing.T) {
	h := newHarness(t, DirectSubmit, testEvent(1, 0x11))
	h.reloader.err = errors.New("bucket unavailable")

	_, err := h.service.RunJobCycle(context.Background())
	require.ErrorContains(t, "could not reload exit messages", err)
	require.Equal(t, uint64(0), h.chain.lastSearched)
}

func TestRunJobCycle_CursorPersisted(t *testing.T) {
	ev := testEvent(9, 0x99)
	h := newHarness(t, DirectSubmit, ev)
	h.consensus.addValidator(9, ev.ValidatorPubkey, beacon.StatusExitedUnslashed)

	_, err := h.service.RunJobCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, h.db.saves)
	require.Equal(t, int64(0), h.db.rec.Position)
	require.Equal(t, uint64(500), h.db.rec.FromBlock)
	require.Equal(t, uint64(1000), h.db.rec.ToBlock)
}

func TestDispatcher_WebhookForwarding(t *testing.T) {
	ev := testEvent(4, 0x44)
	var received exitRequestEventJSON
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	consensus := newFakeConsensus()
	consensus.addValidator(4, ev.ValidatorPubkey, "active_ongoing")
	d, err := NewDispatcher(&DispatcherConfig{
		Mode:       Webhook,
		WebhookURL: srv.URL,
		Consensus:  consensus,
	})
	require.NoError(t, err)

	outcome, err := d.Dispatch(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, OutcomeForwarded, outcome)
	require.Equal(t, "4", received.ValidatorIndex)
	require.Equal(t, hexutil.Encode(ev.ValidatorPubkey[:]), received.ValidatorPubkey)
	require.Equal(t, ev.TxHash.Hex(), received.TransactionHash)
}

func TestDispatcher_WebhookFailureDoesNotAdvance(t *testing.T) {
	ev := testEvent(4, 0x44)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	consensus := newFakeConsensus()
	consensus.addValidator(4, ev.ValidatorPubkey, "active_ongoing")
	d, err := NewDispatcher(&DispatcherConfig{
		Mode:       Webhook,
		WebhookURL: srv.URL,
		Consensus:  consensus,
	})
	require.NoError(t, err)

	outcome, err := d.Dispatch(context.Background(), ev)
	require.ErrorContains(t, "webhook delivery failed", err)
	require.Equal(t, OutcomeFailed, outcome)
}
