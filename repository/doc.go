// Package repository builds parameterised queries from slotted templates and
// runs them through a Store, mapping rows onto typed records. Repository[T]
// adds paging with a separate count step and insert-or-update saves.
package repository
