package quote

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/maduonyekaemeka33/DexSignal/internal/chain"
)

type fakeSource struct {
	mu    sync.Mutex
	delay time.Duration
	out   map[string]*big.Int // keyed by amountIn
	err   error
	calls int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Quote(ctx context.Context, req Request) (*Quote, error) {
	f.mu.Lock()
	f.calls++
	delay := f.delay
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := f.out[req.AmountIn.String()]
	if out == nil {
		out = big.NewInt(0)
	}
	return &Quote{AmountIn: req.AmountIn, AmountOut: out, ValidAt: time.Now()}, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func req(amount int64) Request {
	return Request{
		TokenIn:  chain.Token{Symbol: "AAA", Address: common.Address{1}},
		TokenOut: chain.Token{Symbol: "BBB", Address: common.Address{2}},
		AmountIn: big.NewInt(amount),
		ChainID:  1,
	}
}

func TestRequestDebounces(t *testing.T) {
	source := &fakeSource{out: map[string]*big.Int{"3": big.NewInt(30)}}
	engine := NewEngine(source, zerolog.Nop(), WithDebounce(40*time.Millisecond))

	results := make(chan *Quote, 3)
	for _, amount := range []int64{1, 2, 3} {
		engine.Request(context.Background(), req(amount), func(q *Quote, err error) {
			if err != nil {
				t.Errorf("unexpected quote error: %v", err)
				return
			}
			results <- q
		})
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case q := <-results:
		if q.AmountIn.Int64() != 3 {
			t.Fatalf("expected only the last request to resolve, got amountIn %s", q.AmountIn)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for quote")
	}

	// the two superseded requests must never deliver
	select {
	case q := <-results:
		t.Fatalf("superseded request delivered: amountIn %s", q.AmountIn)
	case <-time.After(100 * time.Millisecond):
	}
	if source.callCount() != 1 {
		t.Fatalf("expected a single upstream call, got %d", source.callCount())
	}
}

func TestInFlightResultDiscardedWhenSuperseded(t *testing.T) {
	source := &fakeSource{
		delay: 50 * time.Millisecond,
		out:   map[string]*big.Int{"1": big.NewInt(10), "2": big.NewInt(20)},
	}
	engine := NewEngine(source, zerolog.Nop(), WithDebounce(time.Millisecond))

	results := make(chan *Quote, 2)
	deliver := func(q *Quote, err error) {
		if err == nil {
			results <- q
		}
	}

	engine.Request(context.Background(), req(1), deliver)
	time.Sleep(20 * time.Millisecond) // first fetch is now in flight
	engine.Request(context.Background(), req(2), deliver)

	select {
	case q := <-results:
		if q.AmountIn.Int64() != 2 {
			t.Fatalf("stale in-flight result delivered: amountIn %s", q.AmountIn)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for quote")
	}
}

func TestCancelDropsPending(t *testing.T) {
	source := &fakeSource{out: map[string]*big.Int{"1": big.NewInt(10)}}
	engine := NewEngine(source, zerolog.Nop(), WithDebounce(20*time.Millisecond))

	delivered := make(chan struct{}, 1)
	engine.Request(context.Background(), req(1), func(*Quote, error) {
		delivered <- struct{}{}
	})
	engine.Cancel()

	select {
	case <-delivered:
		t.Fatal("cancelled request delivered")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestUnavailableIsDistinctError(t *testing.T) {
	source := &fakeSource{err: ErrUnavailable}
	engine := NewEngine(source, zerolog.Nop())

	_, err := engine.QuoteNow(context.Background(), req(1))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

type recordingCaller struct {
	out []byte
	err error
}

func (r *recordingCaller) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return r.out, r.err
}

func TestOnChainSourceRevertMapsToUnavailable(t *testing.T) {
	source := NewOnChainSource(&recordingCaller{err: errors.New("execution reverted")})
	_, err := source.Quote(context.Background(), req(1))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from revert, got %v", err)
	}
}

// amountsResult ABI-encodes a uint256[] the way getAmountsOut returns it.
func amountsResult(values ...int64) []byte {
	word := func(v *big.Int) []byte { return common.LeftPadBytes(v.Bytes(), 32) }
	out := word(big.NewInt(32))
	out = append(out, word(big.NewInt(int64(len(values))))...)
	for _, v := range values {
		out = append(out, word(big.NewInt(v))...)
	}
	return out
}

func TestOnChainSourceResolvesNativeToWrapped(t *testing.T) {
	source := NewOnChainSource(&recordingCaller{out: amountsResult(5, 10)})
	nativeReq := Request{
		TokenIn:  chain.Token{Symbol: "ETH", Address: chain.NativeSentinel, Native: true},
		TokenOut: chain.Token{Symbol: "BBB", Address: common.Address{2}},
		AmountIn: big.NewInt(5),
		ChainID:  1,
	}

	q, err := source.Quote(context.Background(), nativeReq)
	if err != nil {
		t.Fatalf("unexpected quote error: %v", err)
	}
	wrapped := chain.WrappedNativeFor(1)
	if len(q.Path) != 2 || q.Path[0] != wrapped {
		t.Fatalf("expected 2-hop path starting at wrapped native %s, got %v", wrapped, q.Path)
	}
	if q.Path[0] == chain.NativeSentinel {
		t.Fatal("native sentinel leaked into the quote path")
	}
	if q.AmountOut.Int64() != 10 {
		t.Fatalf("expected final hop output 10, got %s", q.AmountOut)
	}
}

func TestOnChainSourceNoPathMapsToUnavailable(t *testing.T) {
	source := NewOnChainSource(&recordingCaller{})
	sameReq := Request{
		TokenIn:  chain.Token{Symbol: "AAA", Address: common.Address{1}},
		TokenOut: chain.Token{Symbol: "AAA", Address: common.Address{1}},
		AmountIn: big.NewInt(1),
		ChainID:  1,
	}
	_, err := source.Quote(context.Background(), sameReq)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for unroutable pair, got %v", err)
	}
}
