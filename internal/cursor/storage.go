package cursor

// StorageClass mirrors libclang's CX_StorageClass.
type StorageClass int

const (
	StorageInvalid StorageClass = iota
	StorageNone
	StorageExtern
	StorageStatic
	StoragePrivateExtern
	StorageOpenCLWorkGroupLocal
	StorageAuto
	StorageRegister
)

var storageNames = [...]string{
	StorageInvalid:              "INVALID",
	StorageNone:                 "NONE",
	StorageExtern:               "EXTERN",
	StorageStatic:               "STATIC",
	StoragePrivateExtern:        "PRIVATEEXTERN",
	StorageOpenCLWorkGroupLocal: "OPENCLWORKGROUPLOCAL",
	StorageAuto:                 "AUTO",
	StorageRegister:             "REGISTER",
}

// String returns the artifact label, e.g. "StorageClass.STATIC".
func (s StorageClass) String() string {
	if s < 0 || int(s) >= len(storageNames) {
		return "StorageClass.INVALID"
	}
	return "StorageClass." + storageNames[s]
}

// StorageClassForSpecifier maps a C storage-class keyword to its class.
func StorageClassForSpecifier(spec string) (StorageClass, bool) {
	switch spec {
	case "extern":
		return StorageExtern, true
	case "static":
		return StorageStatic, true
	case "auto":
		return StorageAuto, true
	case "register":
		return StorageRegister, true
	}
	return StorageInvalid, false
}
