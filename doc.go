// Package mab selects the best model generator for a dataset with a
// multi-armed bandit. Each arm is a model family with a hyperparameter space;
// pulling an arm draws a random configuration, builds the model and scores it.
// A policy spends a fixed budget of pulls across the arms, and the arm holding
// the best single reward wins.
//
// # Features
//
// The package includes the following key features:
//
//   - Four Selection Policies: UCB, epsilon-greedy, softmax and a decaying
//     exploration bonus
//   - Forced Initialization: every arm is pulled once before any policy decides
//   - Running Statistics: per-arm count, mean, standard deviation and best
//     reward, updated online
//   - Fault Tolerance: a failing evaluation is recorded as a penalty reward
//     instead of aborting the run
//   - Reproducibility: each engine draws from its own seeded random source
//   - Progress Monitoring: real-time updates on every pull via channels
//   - Observability: zap logging and optional Prometheus metrics
//
// # Policies
//
// 1. Upper Confidence Bound (UCB):
//
//   - Score: mean + c * sqrt(2 * ln(t) / n)
//
//   - Default choice, c = 1
//
//     config := DefaultConfig()  // Uses UCB by default
//     config.Policy = NewUCB(0.5)
//
// 2. Epsilon-greedy:
//
//   - Uniform exploration with probability epsilon, greedy otherwise
//
//     config.Policy = NewEpsilonGreedy(0.1)
//
// 3. SoftMax:
//
//   - Samples arms proportionally to exp(mean / tau)
//
//     config.Policy = NewSoftMax(0.1)
//
// 4. Proposed:
//
//   - Score: mean + theta * gamma^t / (n + 1)^beta
//
//   - The bonus decays with time, so late pulls exploit
//
//     config.Policy = NewProposed(1.0, 0.99, 0.5)
//
// # Usage
//
//	arm, _ := NewArm("knn", generator, evaluator)
//
//	engine, err := NewEngine(config, arm, otherArm)
//	if err != nil {
//	    return err
//	}
//
//	selection, err := engine.Fit(x, y, 200)
//
// # Thread Safety
//
//   - An engine and its arms belong to one goroutine
//   - Run independent engines in parallel, each with its own Config and arms
//   - A Metrics value may be shared by concurrent engines
package mab
