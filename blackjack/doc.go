// Package blackjack models a single blackjack ruleset: cards, hands, the shoe,
// the canonical decision state encoding and a side-effect free round
// simulator. Policies are consulted through the Policy interface, so the same
// simulator serves self-play training, evaluation and analysis.
package blackjack
