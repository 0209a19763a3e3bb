package dscparser

// Version is the library release tag.
const Version = "2.0.1"
