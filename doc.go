// Package chainenv supervises blockchain test-node processes (ganache,
// geth and friends) for test suites: it launches a node as a child
// process, waits until its RPC endpoint answers, exposes chain control
// operations (time travel, mining, snapshots), and guarantees the whole
// process tree is torn down afterwards, including on SIGINT/SIGTERM.
//
// # Basic Usage
//
//	import "github.com/giantswarm/chainenv"
//
//	ctx := context.Background()
//
//	sup := chainenv.New(chainenv.WithClient(myRPCClient))
//	defer sup.Close()
//
//	err := sup.Launch(ctx, "ganache --port 8545", chainenv.LaunchOptions{
//	    Output: chainenv.OutputFile,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sup.Kill(ctx, false) // Lenient: no-op when nothing is running.
//
//	chain := sup.Controller()
//	id, _ := chain.Snapshot(ctx)
//	chain.Mine(ctx, 5)
//	chain.Revert(ctx, id)
//
// # Attaching
//
// An already-running node can be adopted instead of launched. The process
// is discovered through its listening socket:
//
//	err := sup.Attach(ctx, "http://127.0.0.1:8545")
//
// Attached processes are treated as foreign: they are killed by an
// explicit Kill but never by the exit hook.
//
// # Singleton
//
// New returns a process-level singleton, since at most one backend
// session exists per test process. The first call creates the supervisor
// with the given options; later calls return the same instance and log a
// warning.
package chainenv
