/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylock_test

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/acronis/go-keylock/config"
	"github.com/acronis/go-keylock/keylock"
)

func Example() {
	lock := keylock.New()

	res, err := keylock.Run(context.Background(), lock, "order-42", func(ctx context.Context) (string, error) {
		return "charged", nil
	})
	if err != nil {
		panic(err)
	}
	fmt.Println(res.LockState, res.CallbackResult, res.CallbackSuccess)
	fmt.Println(lock.GetState("order-42"), lock.GetState("order-43"))

	// Output:
	// unlocked charged true
	// unlocked undefined
}

func Example_expiration() {
	lock := keylock.New()

	res, _ := keylock.Run(context.Background(), lock, "report", func(ctx context.Context) (int, error) {
		time.Sleep(200 * time.Millisecond)
		return 1, nil
	}, keylock.WithExpiration(20*time.Millisecond))
	fmt.Println(res.LockState, res.CallbackSuccess)

	// Output:
	// expired false
}

func Example_cancel() {
	lock := keylock.New()

	release := make(chan struct{})
	activeRes, _ := keylock.RunAsync(context.Background(), lock, "x", func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})
	queuedRes, _ := keylock.RunAsync(context.Background(), lock, "x", func(ctx context.Context) (int, error) {
		return 2, nil
	})

	canceled, _ := lock.Cancel("x", keylock.CancelAll)
	fmt.Println(canceled, (<-queuedRes).LockState)

	close(release)
	fmt.Println((<-activeRes).LockState)

	// Output:
	// 1 canceled
	// unlocked
}

func ExampleNewWithConfig() {
	cfgData := bytes.NewBufferString(`
keylock:
  defaultExpiration: 1m
  checkInterval: 10ms
  maxIdleEntries: 10000
`)
	cfg := keylock.NewConfig()
	if err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(cfgData, config.DataTypeYAML, cfg); err != nil {
		panic(err)
	}

	lock, err := keylock.NewWithConfig(cfg, nil, nil)
	if err != nil {
		panic(err)
	}
	fmt.Println(lock.Expiration(), lock.CheckInterval())

	// Output:
	// 1m0s 10ms
}
