// Package errcode defines the application result codes carried in the "code"
// field of every response envelope.
//
// A Code packs the transport status and the domain sub-code into one integer:
// httpStatus*1000 + subCode. Sub-codes are unique across the whole table so a
// client can identify the result from the rewritten body alone.
package errcode

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is an encoded (httpStatus, subCode) pair.
type Code int

// New encodes an HTTP status and a domain sub-code.
func New(httpStatus, sub int) Code {
	return Code(httpStatus*1000 + sub)
}

// HTTPStatus returns the transport status part of the code.
func (c Code) HTTPStatus() int {
	return int(c) / 1000
}

// Sub returns the domain sub-code.
func (c Code) Sub() int {
	return int(c) % 1000
}

// Split returns both parts of the code.
func (c Code) Split() (httpStatus, sub int) {
	return c.HTTPStatus(), c.Sub()
}

// IsSuccess reports whether the code is the success code.
func (c Code) IsSuccess() bool {
	return c == Success
}

// Error lets a bare Code be returned as an error for validation failures that
// carry no underlying cause.
func (c Code) Error() string {
	return c.String()
}

func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Pipeline
const (
	Success                    Code = 200000
	FailedParseAuthorizeInfo   Code = 400001
	FailedAuthorizeTokenVerify Code = 401002
	NotFoundSession            Code = 401003
	FailedLookupSession        Code = 500004
	AlreadyRequestInProgress   Code = 409005
	FailedAcquireLock          Code = 500006
	FailedReleaseLock          Code = 500007
	InvalidRequestBody         Code = 400008
	InternalServerError        Code = 500009
	NotFoundRoute              Code = 404010
)

// Account
const (
	DuplicateEmail        Code = 409020
	InvalidAccountInput   Code = 400021
	LoginFailed           Code = 401022
	FailedRegisterAccount Code = 500023
	FailedLogin           Code = 500024
	FailedRegisterSession Code = 500025
)

// Game data and inventory lists
const (
	CannotFindUserGameData Code = 404030
	FailedGetUserGameData  Code = 500031
	FailedGetCharacterList Code = 500032
	FailedGetItemList      Code = 500033
	FailedGetRuneList      Code = 500034
	InvalidPage            Code = 400035
	FailedGetEquipmentList Code = 500036
)

// Shop
const (
	CannotFindMasterCharacter Code = 404040
	AlreadyOwnedCharacter     Code = 409041
	CannotPurchaseCharacter   Code = 400042
	FailedPurchaseCharacter   Code = 500043
	CannotFindInventoryItem   Code = 404044
	CannotSellEquippedItem    Code = 409045
	FailedSellItem            Code = 500046
)

// Equipment
const (
	CannotFindCharacter     Code = 404050
	CannotFindInventoryRune Code = 404051
	AlreadyEquippedItem     Code = 409052
	AlreadyEquippedRune     Code = 409053
	FailedEquipItem         Code = 500054
	FailedEquipRune         Code = 500055
	NotEquippedItem         Code = 409056
	NotEquippedRune         Code = 409057
	FailedReleaseItem       Code = 500058
	FailedReleaseRune       Code = 500059
)

// Enhance
const (
	CannotEnhanceMaxLevel      Code = 409060
	CannotEnhanceNotEnoughGold Code = 400061
	FailedEnhanceItem          Code = 500062
	FailedEnhanceRune          Code = 500063
	FailedEnhanceCharacter     Code = 500064
	CannotFindMasterData       Code = 500065
)

// Stage
const (
	CannotFindStage        Code = 404070
	StageLocked            Code = 403071
	NotFoundInStageSession Code = 404072
	CannotFindMonsterCode  Code = 400073
	CannotKillMonster      Code = 409074
	StageInProgress        Code = 409075
	StageCodeMismatch      Code = 400076
	FailedEnterStage       Code = 500077
	FailedKillMonster      Code = 500078
	FailedClearStage       Code = 500079
	FailedRewardStage      Code = 500080
)

// Quest
const (
	CannotFindCompleteQuest    Code = 404090
	AlreadyEarnedQuestReward   Code = 409091
	FailedRewardQuest          Code = 500092
	FailedGetQuestList         Code = 500093
	FailedRefreshQuestProgress Code = 500094
)

// Mail
const (
	CannotFindMail      Code = 404100
	AlreadyReceivedMail Code = 409101
	MailExpired         Code = 410102
	FailedReceiveMail   Code = 500103
	FailedGetMailList   Code = 500104
	FailedSendMail      Code = 500105
)

// Attendance
const (
	AlreadyAttendedToday              Code = 409110
	AlreadyCompletedMonthlyAttendance Code = 409111
	FailedAttendance                  Code = 500112
)

var names = map[Code]string{
	Success:                    "Success",
	FailedParseAuthorizeInfo:   "FailedParseAuthorizeInfo",
	FailedAuthorizeTokenVerify: "FailedAuthorizeTokenVerify",
	NotFoundSession:            "NotFoundSession",
	FailedLookupSession:        "FailedLookupSession",
	AlreadyRequestInProgress:   "AlreadyRequestInProgress",
	FailedAcquireLock:          "FailedAcquireLock",
	FailedReleaseLock:          "FailedReleaseLock",
	InvalidRequestBody:         "InvalidRequestBody",
	InternalServerError:        "InternalServerError",
	NotFoundRoute:              "NotFoundRoute",

	DuplicateEmail:        "DuplicateEmail",
	InvalidAccountInput:   "InvalidAccountInput",
	LoginFailed:           "LoginFailed",
	FailedRegisterAccount: "FailedRegisterAccount",
	FailedLogin:           "FailedLogin",
	FailedRegisterSession: "FailedRegisterSession",

	CannotFindUserGameData: "CannotFindUserGameData",
	FailedGetUserGameData:  "FailedGetUserGameData",
	FailedGetCharacterList: "FailedGetCharacterList",
	FailedGetItemList:      "FailedGetItemList",
	FailedGetRuneList:      "FailedGetRuneList",
	InvalidPage:            "InvalidPage",
	FailedGetEquipmentList: "FailedGetEquipmentList",

	CannotFindMasterCharacter: "CannotFindMasterCharacter",
	AlreadyOwnedCharacter:     "AlreadyOwnedCharacter",
	CannotPurchaseCharacter:   "CannotPurchaseCharacter",
	FailedPurchaseCharacter:   "FailedPurchaseCharacter",
	CannotFindInventoryItem:   "CannotFindInventoryItem",
	CannotSellEquippedItem:    "CannotSellEquippedItem",
	FailedSellItem:            "FailedSellItem",

	CannotFindCharacter:     "CannotFindCharacter",
	CannotFindInventoryRune: "CannotFindInventoryRune",
	AlreadyEquippedItem:     "AlreadyEquippedItem",
	AlreadyEquippedRune:     "AlreadyEquippedRune",
	FailedEquipItem:         "FailedEquipItem",
	FailedEquipRune:         "FailedEquipRune",
	NotEquippedItem:         "NotEquippedItem",
	NotEquippedRune:         "NotEquippedRune",
	FailedReleaseItem:       "FailedReleaseItem",
	FailedReleaseRune:       "FailedReleaseRune",

	CannotEnhanceMaxLevel:      "CannotEnhanceMaxLevel",
	CannotEnhanceNotEnoughGold: "CannotEnhanceNotEnoughGold",
	FailedEnhanceItem:          "FailedEnhanceItem",
	FailedEnhanceRune:          "FailedEnhanceRune",
	FailedEnhanceCharacter:     "FailedEnhanceCharacter",
	CannotFindMasterData:       "CannotFindMasterData",

	CannotFindStage:        "CannotFindStage",
	StageLocked:            "StageLocked",
	NotFoundInStageSession: "NotFoundInStageSession",
	CannotFindMonsterCode:  "CannotFindMonsterCode",
	CannotKillMonster:      "CannotKillMonster",
	StageInProgress:        "StageInProgress",
	StageCodeMismatch:      "StageCodeMismatch",
	FailedEnterStage:       "FailedEnterStage",
	FailedKillMonster:      "FailedKillMonster",
	FailedClearStage:       "FailedClearStage",
	FailedRewardStage:      "FailedRewardStage",

	CannotFindCompleteQuest:    "CannotFindCompleteQuest",
	AlreadyEarnedQuestReward:   "AlreadyEarnedQuestReward",
	FailedRewardQuest:          "FailedRewardQuest",
	FailedGetQuestList:         "FailedGetQuestList",
	FailedRefreshQuestProgress: "FailedRefreshQuestProgress",

	CannotFindMail:      "CannotFindMail",
	AlreadyReceivedMail: "AlreadyReceivedMail",
	MailExpired:         "MailExpired",
	FailedReceiveMail:   "FailedReceiveMail",
	FailedGetMailList:   "FailedGetMailList",
	FailedSendMail:      "FailedSendMail",

	AlreadyAttendedToday:              "AlreadyAttendedToday",
	AlreadyCompletedMonthlyAttendance: "AlreadyCompletedMonthlyAttendance",
	FailedAttendance:                  "FailedAttendance",
}

// All returns every defined code.
func All() []Code {
	codes := make([]Code, 0, len(names))
	for c := range names {
		codes = append(codes, c)
	}
	return codes
}

// Error attaches a result code to an underlying cause.
type Error struct {
	Code Code
	Err  error
}

// Wrap returns err tagged with code. A nil err still produces an error so the
// code is never lost.
func Wrap(code Code, err error) error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the result code from err. nil maps to Success and an error
// without a code maps to InternalServerError.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	var code Code
	if errors.As(err, &code) {
		return code
	}
	return InternalServerError
}

// IsServerError reports whether the code maps to a 5xx status.
func (c Code) IsServerError() bool {
	return c.HTTPStatus() >= http.StatusInternalServerError
}
