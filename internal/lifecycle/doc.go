// Package lifecycle holds the referent types used to demonstrate and test
// ownership handles, and a Recorder for their construction/destruction trace.
package lifecycle
