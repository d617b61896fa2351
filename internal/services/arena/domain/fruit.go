package domain

import "math/rand/v2"

// FruitKind is the reward tier of a fruit.
type FruitKind string

const (
	FruitCommon FruitKind = "COMMON"
	FruitRare   FruitKind = "RARE"
	FruitGolden FruitKind = "GOLDEN"
)

// Fruit is a consumable board item worth Value points and Value growth.
type Fruit struct {
	Cell  Cell
	Value int
	Kind  FruitKind
}

type fruitTier struct {
	kind   FruitKind
	value  int
	weight int
}

var fruitTable = []fruitTier{
	{kind: FruitCommon, value: 1, weight: 6},
	{kind: FruitRare, value: 3, weight: 3},
	{kind: FruitGolden, value: 5, weight: 1},
}

func drawFruitTier(rng *rand.Rand) fruitTier {
	total := 0
	for _, tier := range fruitTable {
		total += tier.weight
	}
	n := rng.IntN(total)
	for _, tier := range fruitTable {
		if n < tier.weight {
			return tier
		}
		n -= tier.weight
	}
	return fruitTable[0]
}
