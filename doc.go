// Package neat provides a Go implementation of the NeuroEvolution of
// Augmenting Topologies (NEAT) algorithm, used here to evolve Pong players.
//
// NEAT evolves both the weights and the structure of neural networks,
// protecting new structure through speciation.
//
// The fitness environment lives in package pong: every generation plays a
// round-robin tournament in which each genome controls a paddle and earns
// fitness for hits and survival time.
//
// Basic usage:
//
//	config, err := neat.LoadConfig("configs/pong-config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//	settings, err := pong.LoadSettings("configs/pong-config.ini")
//	if err != nil {
//		log.Fatalf("Error loading pong settings: %v", err)
//	}
//
//	pop, err := neat.NewPopulation(config)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//	pop.AddReporter(neat.NewStdOutReporter(true))
//
//	tournament, _ := settings.Tournament()
//	winner, err := pop.Run(ctx, tournament.EvalGenomes, settings.Generations)
package neat
