// Package testsupport provides fixtures shared by package tests: isolated
// configurations, stub media tools, synthetic images, and EXIF/PNG metadata
// writers.
package testsupport
