package utils

// Student ID prefix used in generated identifiers (TCTC-<year><serial>)
const StudentIDPrefix = "TCTC"
