// Package noise measures sensor noise texture as the variance of the 3×3
// Laplacian over grayscale pixels. Low values indicate over-smoothed or fully
// synthetic content; the measurement feeds the ensemble score.
package noise
