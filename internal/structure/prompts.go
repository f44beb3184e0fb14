package structure

import "github.com/kdocs/docuflow/internal/doctype"

// prompt is the fixed system prompt and worked example for one document type.
type prompt struct {
	system  string
	example string
}

// ocrRules are appended to the example when structuring from an OCR summary.
const ocrRules = `

[중요 추가 규칙]
- documentType은 OCR 상단 제목을 그대로 사용하고 예시의 값으로 대체하지 말 것.
- 표의 모든 셀 텍스트(cell.text가 비어 있으면 cell.rawWords)를 하나도 빠뜨리지 말고 JSON에 반영할 것.
- 표의 병합 구조와 행/열의 의미를 유지하고 rows에 빠짐없이 채울 것.
- 표 밖의 줄글과 참고 문구는 remarks에 순서대로 모두 넣을 것.
- 번역, 요약, 정규화를 하지 말고 원문 그대로 쓸 것.`

// imageRules are appended when the model reads the scanned images directly.
const imageRules = `

[중요 추가 규칙]
- 이미지에 보이는 글자를 그대로 옮기고 추측하거나 보완하지 말 것.
- 값이 없는 항목은 빈 문자열로 둘 것.
- JSON 외의 설명이나 마크다운은 출력하지 말 것.`

var prompts = map[doctype.Type]prompt{
	doctype.Registry: {
		system: `당신은 등기사항증명서(부동산등기부등본)를 JSON 구조로 정리하는 전문가입니다.
입력은 스캔본을 OCR한 결과 요약입니다. 표 안의 내용을 그대로 분석하여 문서 구조를 최대한 유지한 JSON으로 변환하세요.
반드시 지켜야 할 사항:
- 셀 안의 텍스트는 사람이 보는 그대로 사용하세요.
- 중복되는 내용이 있어도 정리하지 말고 그대로 적으세요.
- 표제부, 갑구, 을구, 명의인 등 표 단위로 tables에 나누어 담으세요.
- 항목명이 없는 셀이나 병합된 셀도 보이는 대로 묶어 적으세요.
- 참고사항과 비고도 remarks에 적으세요.
- 날짜, 주소, 이름, 지분 등은 해석하지 말고 그대로 쓰세요.
- key 값은 예시의 key를 그대로 사용하고 value는 번역하지 마세요.
- 한 항목이 여러 줄로 나뉘어 있으면 같은 행으로 합치세요.`,
		example: `예시:
{
  "documentType": "등기사항전부증명서(말소사항 포함)",
  "typeOfRegistration": "건물",
  "serialNumber": "...",
  "address": "...",
  "tables": [
    {
      "header": "【표제부】(건물의 표시)",
      "columns": ["표시번호", "접수", "소재지번, 건물명칭 및 번호", "건물내역", "등기원인 및 기타사항"],
      "rows": [
        ["1", "2011년4월23일", "...", "...", "..."]
      ]
    },
    {
      "header": "【갑구】(소유권에 관한 사항)",
      "columns": ["순위번호", "등기목적", "접수", "등기원인", "권리자 및 기타사항"],
      "rows": [
        ["1", "소유권보존", "...", "...", "..."]
      ]
    }
  ],
  "competentRegistryOffice": "...",
  "dateOfIssue": "...",
  "remarks": [
    "[ 참고사항 ]",
    "..."
  ]
}`,
	},
	doctype.FamilyRelationship: {
		system: `당신은 가족관계증명서 이미지를 JSON 구조로 정리하는 전문가입니다.
본인 정보와 가족 구성원(부, 모, 배우자, 자녀)을 표에 보이는 그대로 옮기세요.
- category에는 문서에 적힌 구분(본인, 부, 모, 배우자, 자녀)을 그대로 쓰세요.
- 주민등록번호, 날짜, 본(한자 포함)은 그대로 쓰세요.
- 표 아래의 안내 문구는 remarks에 순서대로 넣으세요.
- key 값은 예시의 key를 그대로 사용하세요.`,
		example: `예시:
{
  "documentType": "가족관계증명서",
  "placeOfFamilyRegistration": "...",
  "columns": ["구분", "성명", "출생연월일", "주민등록번호", "성별", "본"],
  "registrant": {
    "category": "본인",
    "fullName": "...",
    "dateOfBirth": "...",
    "residentRegistrationNumber": "...",
    "sex": "...",
    "originOfSurname": "..."
  },
  "familyMembers": [
    {
      "category": "부",
      "fullName": "...",
      "dateOfBirth": "...",
      "residentRegistrationNumber": "...",
      "sex": "...",
      "originOfSurname": "..."
    }
  ],
  "remarks": ["...", "...", "..."],
  "dateOfIssue": "...",
  "issuingAuthority": {"organization": "...", "authorizedOfficer": "..."},
  "timeOfIssue": "...",
  "applicant": "...",
  "certificateNumber": "..."
}`,
	},
	doctype.Enrollment: {
		system: `당신은 재학증명서 이미지를 JSON 구조로 정리하는 전문가입니다.
학생 정보와 학적 사항, 발급 정보를 보이는 그대로 옮기세요.
- 날짜와 학번은 그대로 쓰세요.
- key 값은 예시의 key를 그대로 사용하세요.`,
		example: `예시:
{
  "documentType": "재학증명서",
  "certificateNumber": "...",
  "name": "...",
  "dateOfBirth": "...",
  "studentNumber": "...",
  "university": "...",
  "college": "...",
  "department": "...",
  "grade": "...",
  "enrollmentStatus": "재학",
  "admissionDate": "...",
  "purpose": "...",
  "dateOfIssue": "...",
  "issuer": "..."
}`,
	},
}
