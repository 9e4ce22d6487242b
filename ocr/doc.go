package ocr

// Package ocr defines abstraction layers for plugging OCR engines (local
// Tesseract or cloud services) into the exam ingestion pipeline, plus a
// fallback Chain that tries providers in priority order. The interfaces are
// intentionally small and transport-agnostic so engines can be backed by
// local binaries, native libraries, or remote APIs without leaking
// provider-specific concerns into callers.
