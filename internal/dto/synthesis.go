package dto

import "github.com/gdg-cloud-hanoi/gallery-optimizer/internal/entity"

// Synthesis is the best-effort output of the description synthesizer. Fields
// degrade to zero values on generative failures, never to an error.
type Synthesis struct {
	Description string
	QA          []entity.QAPair
}
