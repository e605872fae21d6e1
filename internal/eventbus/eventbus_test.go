package eventbus

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type started struct{ Name string }
type stopped struct{ Name string }

func TestBus(t *testing.T) {
	Use(New())
	t.Cleanup(func() { Use(nil) })

	var got []string
	unsubA := Subscribe(func(_ context.Context, e started) { got = append(got, "a:"+e.Name) })
	unsubB := Subscribe(func(_ context.Context, e started) { got = append(got, "b:"+e.Name) })
	defer unsubB()
	Subscribe(func(_ context.Context, e stopped) { got = append(got, "stop:"+e.Name) })

	Publish(context.Background(), started{Name: "one"})
	Publish(context.Background(), stopped{Name: "one"})

	// unsubscribing twice removes only the first handler
	unsubA()
	unsubA()
	Publish(context.Background(), started{Name: "two"})

	want := []string{"a:one", "b:one", "stop:one", "b:two"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("delivered events mismatch (-want +got):\n%s", diff)
	}
}

func TestBus_Disabled(t *testing.T) {
	Use(nil)
	called := false
	unsub := Subscribe(func(context.Context, started) { called = true })
	Publish(context.Background(), started{})
	unsub()
	require.False(t, called)
}
