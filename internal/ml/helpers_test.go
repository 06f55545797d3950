package ml

import "math/rand"

// blobs returns two well separated Gaussian clusters in dims dimensions.
func blobs(perClass, dims int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	var x [][]float64
	var y []int
	for i := 0; i < perClass; i++ {
		for class, centre := range []float64{-2, 2} {
			row := make([]float64, dims)
			for d := range row {
				row[d] = centre + rng.NormFloat64()*0.4
			}
			x = append(x, row)
			y = append(y, class)
		}
	}
	return x, y
}

func mustAccuracy(c Classifier, x [][]float64, y []int) float64 {
	pred, err := c.Predict(x)
	if err != nil {
		panic(err)
	}
	acc, err := Accuracy(y, pred)
	if err != nil {
		panic(err)
	}
	return acc
}
